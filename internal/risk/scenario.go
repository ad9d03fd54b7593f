package risk

import (
	"fmt"

	"main/internal/schema"
)

const scenarioModelID = "scenario-stress"

// Scenario is a named historical shock expressed as fractional moves
// applied to equity, volatility and alternative-asset exposures.
type Scenario struct {
	Name              string
	EquityShock       float64
	VolatilityShock   float64
	AlternativesShock float64
}

// DefaultScenarios is the reference catalogue of historical stress events.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: "Black Monday 1987", EquityShock: -0.22, VolatilityShock: 1.50, AlternativesShock: -0.05},
		{Name: "GFC September 2008", EquityShock: -0.40, VolatilityShock: 2.30, AlternativesShock: -0.25},
		{Name: "Volmageddon 2018", EquityShock: -0.04, VolatilityShock: 1.15, AlternativesShock: -0.02},
		{Name: "COVID March 2020", EquityShock: -0.34, VolatilityShock: 3.00, AlternativesShock: -0.15},
	}
}

// ScenarioModel projects P&L impact per catalogue scenario from post-trade
// exposures and denies orders whose worst case breaches the configured
// fraction of capital.
type ScenarioModel struct {
	scenarios       []Scenario
	maxLossFraction float64
	notionalScale   float64
}

// NewScenarioModel creates the reference risk model. notionalScale converts
// scaled-integer order notional into exposure units; pass 1 when order
// prices and exposures share units.
func NewScenarioModel(scenarios []Scenario, maxLossFraction, notionalScale float64) *ScenarioModel {
	if notionalScale <= 0 {
		notionalScale = 1
	}
	return &ScenarioModel{
		scenarios:       scenarios,
		maxLossFraction: maxLossFraction,
		notionalScale:   notionalScale,
	}
}

func (m *ScenarioModel) ModelID() string {
	return scenarioModelID
}

// Check projects every scenario against the portfolio as it would look
// after the order fills, then compares the worst projected loss with the
// loss limit.
func (m *ScenarioModel) Check(order schema.Order, portfolio schema.Portfolio) schema.RiskCheckResult {
	equity := portfolio.EquityExposure
	delta := float64(order.Price) * float64(order.Qty) / m.notionalScale
	switch order.Side {
	case schema.OrderSideBuy:
		equity += delta
	case schema.OrderSideSell:
		equity -= delta
	}

	var (
		worstPnL  float64
		worstName string
	)
	for _, sc := range m.scenarios {
		pnl := equity*sc.EquityShock +
			portfolio.VolatilityExposure*sc.VolatilityShock +
			portfolio.AlternativesExposure*sc.AlternativesShock
		if pnl < worstPnL {
			worstPnL = pnl
			worstName = sc.Name
		}
	}

	if portfolio.Capital > 0 && -worstPnL > m.maxLossFraction*portfolio.Capital {
		return schema.RiskCheckResult{
			Reason: fmt.Sprintf("scenario %q projects loss %.2f beyond limit %.2f",
				worstName, -worstPnL, m.maxLossFraction*portfolio.Capital),
			ModelID:          scenarioModelID,
			Confidence:       0.95,
			RequiresOverride: true,
		}
	}

	return schema.RiskCheckResult{
		Allowed:    true,
		Reason:     "worst-case scenario within loss limit",
		ModelID:    scenarioModelID,
		Confidence: 0.95,
	}
}
