package schema

import "time"

// Price is a scaled integer. The scale is defined by configuration.
type Price int64

// Quantity is a scaled integer. The scale is defined by configuration.
type Quantity int64

// Notional is a scaled integer. The scale is defined by configuration.
type Notional int64

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// OrderType describes order type.
type OrderType uint16

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
)

// RecordType tags an audit log payload. Interpretation of the payload
// bytes is each record kind's own contract.
type RecordType uint8

const (
	RecordUnknown RecordType = iota
	RecordGovernanceDecision
	RecordRiskDecision
	RecordHeartbeat
)

// Order is the admission-control view of an order intent.
type Order struct {
	OrderID uint64
	Symbol  string
	Side    OrderSide
	Type    OrderType
	Price   Price
	Qty     Quantity
}

// Portfolio is the position snapshot a risk model checks an order against.
// Positions are per-symbol scaled quantities; exposures are the aggregate
// inputs to scenario P&L projection.
type Portfolio struct {
	Positions map[string]Quantity

	EquityExposure       float64
	VolatilityExposure   float64
	AlternativesExposure float64
	Capital              float64
}

// Position returns the current quantity for a symbol.
func (p Portfolio) Position(symbol string) Quantity {
	return p.Positions[symbol]
}

// SystemState is the numeric snapshot the stability policy evaluates.
type SystemState struct {
	Leverage   float64
	Volatility float64
	Drawdown   float64
}

// DecisionRequest is an opaque governance action submitted to the policy
// engine. Context is interpreted by individual policies.
type DecisionRequest struct {
	Action    string
	Context   any
	Timestamp time.Time
}

// RiskCheckResult is the verdict a risk model or the kernel returns.
// Denials are ordinary values, never errors.
type RiskCheckResult struct {
	Allowed          bool
	Reason           string
	ModelID          string
	Confidence       float64
	RequiresOverride bool
}

// GovernanceDecision records the outcome of a governance transition or
// policy verdict for the audit trail.
type GovernanceDecision struct {
	ID         string
	Timestamp  time.Time
	PolicyName string
	ApproverID string
	Approved   bool
	Rationale  string
	Signature  []byte
}
