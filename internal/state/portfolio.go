package state

import (
	"sync"

	"main/internal/schema"
)

// PortfolioReducer folds admitted orders into the portfolio snapshot that
// callers hand to the risk kernel. Exposure marks come from an external
// analytics feed and are set wholesale.
type PortfolioReducer struct {
	mu            sync.RWMutex
	positions     map[string]schema.Quantity
	equity        float64
	volatility    float64
	alternatives  float64
	capital       float64
	notionalScale float64
}

// NewPortfolioReducer creates an empty reducer. notionalScale converts
// scaled-integer order notional into exposure units.
func NewPortfolioReducer(capital, notionalScale float64) *PortfolioReducer {
	if notionalScale <= 0 {
		notionalScale = 1
	}
	return &PortfolioReducer{
		positions:     make(map[string]schema.Quantity),
		capital:       capital,
		notionalScale: notionalScale,
	}
}

// ApplyOrder updates positions and equity exposure for an admitted order.
func (r *PortfolioReducer) ApplyOrder(order schema.Order) {
	delta := float64(order.Price) * float64(order.Qty) / r.notionalScale

	r.mu.Lock()
	defer r.mu.Unlock()
	switch order.Side {
	case schema.OrderSideBuy:
		r.positions[order.Symbol] += order.Qty
		r.equity += delta
	case schema.OrderSideSell:
		r.positions[order.Symbol] -= order.Qty
		r.equity -= delta
	}
}

// SetExposures replaces the aggregate exposure marks.
func (r *PortfolioReducer) SetExposures(equity, volatility, alternatives float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.equity = equity
	r.volatility = volatility
	r.alternatives = alternatives
}

// Snapshot returns a copy of the current portfolio.
func (r *PortfolioReducer) Snapshot() schema.Portfolio {
	r.mu.RLock()
	defer r.mu.RUnlock()
	positions := make(map[string]schema.Quantity, len(r.positions))
	for symbol, qty := range r.positions {
		positions[symbol] = qty
	}
	return schema.Portfolio{
		Positions:            positions,
		EquityExposure:       r.equity,
		VolatilityExposure:   r.volatility,
		AlternativesExposure: r.alternatives,
		Capital:              r.capital,
	}
}

// Position returns the current quantity for a symbol.
func (r *PortfolioReducer) Position(symbol string) schema.Quantity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.positions[symbol]
}
