package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"main/internal/schema"
)

// Snapshot captures the portfolio at a point in time.
type Snapshot struct {
	Timestamp            int64           `json:"timestamp"`
	Positions            []PositionEntry `json:"positions"`
	EquityExposure       float64         `json:"equityExposure"`
	VolatilityExposure   float64         `json:"volatilityExposure"`
	AlternativesExposure float64         `json:"alternativesExposure"`
	Capital              float64         `json:"capital"`
}

// PositionEntry is a single symbol position entry.
type PositionEntry struct {
	Symbol string          `json:"symbol"`
	Qty    schema.Quantity `json:"qty"`
}

// ToSnapshot builds a persistable snapshot from the reducer.
func (r *PortfolioReducer) ToSnapshot() Snapshot {
	portfolio := r.Snapshot()
	entries := make([]PositionEntry, 0, len(portfolio.Positions))
	for symbol, qty := range portfolio.Positions {
		entries = append(entries, PositionEntry{Symbol: symbol, Qty: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Symbol < entries[j].Symbol
	})
	return Snapshot{
		Timestamp:            time.Now().UTC().UnixNano(),
		Positions:            entries,
		EquityExposure:       portfolio.EquityExposure,
		VolatilityExposure:   portfolio.VolatilityExposure,
		AlternativesExposure: portfolio.AlternativesExposure,
		Capital:              portfolio.Capital,
	}
}

// ApplySnapshot replaces reducer state with a snapshot.
func (r *PortfolioReducer) ApplySnapshot(snapshot Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions = make(map[string]schema.Quantity, len(snapshot.Positions))
	for _, entry := range snapshot.Positions {
		r.positions[entry.Symbol] = entry.Qty
	}
	r.equity = snapshot.EquityExposure
	r.volatility = snapshot.VolatilityExposure
	r.alternatives = snapshot.AlternativesExposure
	r.capital = snapshot.Capital
}

// WriteSnapshot writes a snapshot to disk as JSON.
func WriteSnapshot(path string, snapshot Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a snapshot from disk.
func ReadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// CompareSnapshots checks if two snapshots hold the same positions.
func CompareSnapshots(expected, actual Snapshot) error {
	if len(expected.Positions) != len(actual.Positions) {
		return fmt.Errorf("snapshot length mismatch: expected=%d actual=%d", len(expected.Positions), len(actual.Positions))
	}
	expectedMap := make(map[string]schema.Quantity, len(expected.Positions))
	for _, entry := range expected.Positions {
		expectedMap[entry.Symbol] = entry.Qty
	}
	for _, entry := range actual.Positions {
		want, ok := expectedMap[entry.Symbol]
		if !ok {
			return fmt.Errorf("snapshot missing symbol: %s", entry.Symbol)
		}
		if want != entry.Qty {
			return fmt.Errorf("snapshot qty mismatch: symbol=%s expected=%d actual=%d", entry.Symbol, want, entry.Qty)
		}
	}
	return nil
}
