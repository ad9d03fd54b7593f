package risk

import (
	"sync"
	"time"

	"main/internal/schema"
)

const maxInt64 = int64(^uint64(0) >> 1)

const limitModelID = "static-limits"

// LimitConfig defines static pre-trade limits. Zero values disable the
// corresponding check.
type LimitConfig struct {
	MaxOrderQty          schema.Quantity `json:"maxOrderQty"`
	MaxOrderNotional     schema.Notional `json:"maxOrderNotional"`
	MaxPosition          schema.Quantity `json:"maxPosition"`
	OrderRateLimit       int             `json:"orderRateLimit"`
	OrderRateWindow      time.Duration   `json:"orderRateWindow"`
	MaxPriceDeviationBps int64           `json:"maxPriceDeviationBps"`
	ReferencePrice       schema.Price    `json:"referencePrice"`
}

// LimitModel applies static limits to an order intent. The rate window is
// mutex-guarded so concurrent ValidateOrder calls stay consistent.
type LimitModel struct {
	cfg LimitConfig

	mu              sync.Mutex
	rateWindowStart int64
	rateCount       int
	now             func() time.Time
}

// NewLimitModel creates a limit model with static limits.
func NewLimitModel(cfg LimitConfig) *LimitModel {
	return &LimitModel{cfg: cfg, now: time.Now}
}

func (m *LimitModel) ModelID() string {
	return limitModelID
}

// Check evaluates the order against each configured limit, first
// disqualifying condition wins.
func (m *LimitModel) Check(order schema.Order, portfolio schema.Portfolio) schema.RiskCheckResult {
	if m.cfg.OrderRateLimit > 0 && m.cfg.OrderRateWindow > 0 && m.rateExceeded() {
		return m.deny("order rate limit exceeded")
	}

	if m.cfg.MaxOrderQty > 0 && order.Qty > m.cfg.MaxOrderQty {
		return m.deny("max order quantity exceeded")
	}

	if m.cfg.MaxPriceDeviationBps > 0 && order.Type == schema.OrderTypeLimit && order.Price > 0 {
		ref := int64(m.cfg.ReferencePrice)
		if ref > 0 {
			diff := absInt64(int64(order.Price) - ref)
			if exceedsDeviation(diff, ref, m.cfg.MaxPriceDeviationBps) {
				return m.deny("price outside deviation band")
			}
		}
	}

	notional, overflow := mulNotional(order.Price, order.Qty)
	if overflow {
		return m.deny("order notional overflow")
	}
	if m.cfg.MaxOrderNotional > 0 && notional > m.cfg.MaxOrderNotional {
		return m.deny("max order notional exceeded")
	}

	nextPos := applySide(portfolio.Position(order.Symbol), order.Side, order.Qty)
	if m.cfg.MaxPosition > 0 && absQuantity(nextPos) > m.cfg.MaxPosition {
		return m.deny("position limit exceeded")
	}

	return schema.RiskCheckResult{
		Allowed:    true,
		Reason:     "within static limits",
		ModelID:    limitModelID,
		Confidence: 1.0,
	}
}

func (m *LimitModel) rateExceeded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now().UnixNano()
	window := int64(m.cfg.OrderRateWindow)
	if m.rateWindowStart == 0 || now-m.rateWindowStart >= window {
		m.rateWindowStart = now
		m.rateCount = 0
	}
	m.rateCount++
	return m.rateCount > m.cfg.OrderRateLimit
}

func (m *LimitModel) deny(reason string) schema.RiskCheckResult {
	return schema.RiskCheckResult{
		Reason:     reason,
		ModelID:    limitModelID,
		Confidence: 1.0,
	}
}

func mulNotional(price schema.Price, qty schema.Quantity) (schema.Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	if p < 0 {
		p = -p
	}
	if q < 0 {
		q = -q
	}
	if p > maxInt64/q {
		return 0, true
	}
	return schema.Notional(int64(price) * int64(qty)), false
}

func applySide(pos schema.Quantity, side schema.OrderSide, qty schema.Quantity) schema.Quantity {
	switch side {
	case schema.OrderSideBuy:
		return schema.Quantity(int64(pos) + int64(qty))
	case schema.OrderSideSell:
		return schema.Quantity(int64(pos) - int64(qty))
	default:
		return pos
	}
}

func absQuantity(q schema.Quantity) schema.Quantity {
	if q < 0 {
		return -q
	}
	return q
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func exceedsDeviation(diff int64, ref int64, bps int64) bool {
	if diff <= 0 || ref <= 0 || bps <= 0 {
		return false
	}
	if diff > maxInt64/10000 {
		return true
	}
	lhs := diff * 10000
	if ref > maxInt64/bps {
		return true
	}
	rhs := ref * bps
	return lhs > rhs
}
