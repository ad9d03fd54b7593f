package state

import (
	"path/filepath"
	"testing"

	"main/internal/schema"
)

func TestApplyOrderUpdatesPositionsAndExposure(t *testing.T) {
	reducer := NewPortfolioReducer(1_000_000, 1)
	reducer.ApplyOrder(schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 100, Qty: 10})
	reducer.ApplyOrder(schema.Order{Symbol: "ESZ6", Side: schema.OrderSideSell, Price: 100, Qty: 4})
	reducer.ApplyOrder(schema.Order{Symbol: "NQZ6", Side: schema.OrderSideBuy, Price: 200, Qty: 2})

	if got := reducer.Position("ESZ6"); got != 6 {
		t.Fatalf("ESZ6 position: got %d want 6", got)
	}
	portfolio := reducer.Snapshot()
	if portfolio.EquityExposure != 100*10-100*4+200*2 {
		t.Fatalf("equity exposure: got %v", portfolio.EquityExposure)
	}
	if portfolio.Capital != 1_000_000 {
		t.Fatalf("capital: got %v", portfolio.Capital)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	reducer := NewPortfolioReducer(500_000, 1)
	reducer.ApplyOrder(schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 50, Qty: 3})
	reducer.SetExposures(150, 20, 5)

	path := filepath.Join(t.TempDir(), "positions.json")
	if err := WriteSnapshot(path, reducer.ToSnapshot()); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	loaded, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	restored := NewPortfolioReducer(0, 1)
	restored.ApplySnapshot(loaded)
	if restored.Position("ESZ6") != 3 {
		t.Fatalf("restored position: got %d", restored.Position("ESZ6"))
	}
	if err := CompareSnapshots(reducer.ToSnapshot(), restored.ToSnapshot()); err != nil {
		t.Fatalf("snapshots differ: %v", err)
	}
	portfolio := restored.Snapshot()
	if portfolio.EquityExposure != 150 || portfolio.VolatilityExposure != 20 || portfolio.AlternativesExposure != 5 {
		t.Fatalf("exposures not restored: %+v", portfolio)
	}
	if portfolio.Capital != 500_000 {
		t.Fatalf("capital not restored: %v", portfolio.Capital)
	}
}
