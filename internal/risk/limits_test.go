package risk

import (
	"testing"
	"time"

	"main/internal/schema"
)

func TestLimitModelChecks(t *testing.T) {
	cfg := LimitConfig{
		MaxOrderQty:          100,
		MaxOrderNotional:     50_000,
		MaxPosition:          500,
		MaxPriceDeviationBps: 200,
		ReferencePrice:       1_000,
	}

	cases := []struct {
		name      string
		order     schema.Order
		portfolio schema.Portfolio
		allowed   bool
		reason    string
	}{
		{
			name:    "within limits",
			order:   schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Type: schema.OrderTypeLimit, Price: 1_000, Qty: 50},
			allowed: true,
		},
		{
			name:   "qty exceeded",
			order:  schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 1_000, Qty: 101},
			reason: "max order quantity exceeded",
		},
		{
			name:   "notional exceeded",
			order:  schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 1_000, Qty: 51},
			reason: "max order notional exceeded",
		},
		{
			name:   "price band",
			order:  schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Type: schema.OrderTypeLimit, Price: 1_021, Qty: 10},
			reason: "price outside deviation band",
		},
		{
			name:      "position limit",
			order:     schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 1_000, Qty: 50},
			portfolio: schema.Portfolio{Positions: map[string]schema.Quantity{"ESZ6": 460}},
			reason:    "position limit exceeded",
		},
		{
			name:      "sell reduces position",
			order:     schema.Order{Symbol: "ESZ6", Side: schema.OrderSideSell, Price: 1_000, Qty: 50},
			portfolio: schema.Portfolio{Positions: map[string]schema.Quantity{"ESZ6": 460}},
			allowed:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			model := NewLimitModel(cfg)
			result := model.Check(tc.order, tc.portfolio)
			if result.Allowed != tc.allowed {
				t.Fatalf("allowed mismatch: got %+v", result)
			}
			if !tc.allowed && result.Reason != tc.reason {
				t.Fatalf("reason mismatch: got %q want %q", result.Reason, tc.reason)
			}
			if result.ModelID != limitModelID {
				t.Fatalf("model id mismatch: %q", result.ModelID)
			}
		})
	}
}

func TestLimitModelRateWindow(t *testing.T) {
	model := NewLimitModel(LimitConfig{
		OrderRateLimit:  2,
		OrderRateWindow: time.Second,
	})
	clock := time.Unix(1_700_000_000, 0)
	model.now = func() time.Time { return clock }

	order := schema.Order{Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 10, Qty: 1}
	if r := model.Check(order, schema.Portfolio{}); !r.Allowed {
		t.Fatalf("first order denied: %+v", r)
	}
	if r := model.Check(order, schema.Portfolio{}); !r.Allowed {
		t.Fatalf("second order denied: %+v", r)
	}
	if r := model.Check(order, schema.Portfolio{}); r.Allowed {
		t.Fatal("third order within window must be denied")
	}

	clock = clock.Add(2 * time.Second)
	if r := model.Check(order, schema.Portfolio{}); !r.Allowed {
		t.Fatalf("order after window reset denied: %+v", r)
	}
}

func TestLimitModelNotionalOverflow(t *testing.T) {
	model := NewLimitModel(LimitConfig{MaxOrderNotional: 1})
	order := schema.Order{
		Symbol: "ESZ6",
		Side:   schema.OrderSideBuy,
		Price:  schema.Price(maxInt64),
		Qty:    schema.Quantity(maxInt64),
	}
	result := model.Check(order, schema.Portfolio{})
	if result.Allowed || result.Reason != "order notional overflow" {
		t.Fatalf("overflow not caught: %+v", result)
	}
}
