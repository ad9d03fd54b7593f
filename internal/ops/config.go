package ops

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yanun0323/decimal"

	"main/internal/risk"
	"main/internal/schema"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Audit     AuditConfig      `json:"audit"`
	Limits    risk.LimitConfig `json:"limits"`
	Scenarios []ScenarioConfig `json:"scenarios"`
	Stress    StressConfig     `json:"stress"`
	Portfolio PortfolioConfig  `json:"portfolio"`
	Policies  PoliciesConfig   `json:"policies"`
	Orders    []OrderConfig    `json:"orders"`
}

// AuditConfig describes the audit journal location and key source.
type AuditConfig struct {
	Path      string `json:"path"`
	KeyEnv    string `json:"keyEnv"`
	QueueSize int    `json:"queueSize"`
}

// ScenarioConfig is one historical shock entry. Shocks are fractional
// moves given as decimal strings.
type ScenarioConfig struct {
	Name              string          `json:"name"`
	EquityShock       decimal.Decimal `json:"equityShock"`
	VolatilityShock   decimal.Decimal `json:"volatilityShock"`
	AlternativesShock decimal.Decimal `json:"alternativesShock"`
}

// StressConfig tunes the scenario model.
type StressConfig struct {
	WorstCaseLossFraction decimal.Decimal `json:"worstCaseLossFraction"`
	NotionalScale         float64         `json:"notionalScale"`
}

// PortfolioConfig seeds the portfolio reducer.
type PortfolioConfig struct {
	Capital              float64 `json:"capital"`
	EquityExposure       float64 `json:"equityExposure"`
	VolatilityExposure   float64 `json:"volatilityExposure"`
	AlternativesExposure float64 `json:"alternativesExposure"`
}

// PoliciesConfig enables governance policies.
type PoliciesConfig struct {
	Liveness  *LivenessConfig `json:"liveness"`
	Stability bool            `json:"stability"`
}

// LivenessConfig bounds heartbeat staleness.
type LivenessConfig struct {
	HeartbeatAction string        `json:"heartbeatAction"`
	MaxStale        time.Duration `json:"maxStale"`
}

// OrderConfig describes one order to submit through the gate.
type OrderConfig struct {
	OrderID uint64           `json:"orderId"`
	Symbol  string           `json:"symbol"`
	Side    schema.OrderSide `json:"side"`
	Type    schema.OrderType `json:"type"`
	Price   schema.Price     `json:"price"`
	Qty     schema.Quantity  `json:"qty"`
}

// AuditSpec is the resolved audit journal definition.
type AuditSpec struct {
	Path      string
	Key       []byte
	QueueSize int
}

// StressSpec is the resolved scenario model definition.
type StressSpec struct {
	Scenarios             []risk.Scenario
	WorstCaseLossFraction float64
	NotionalScale         float64
}

// LivenessSpec is the resolved liveness policy definition.
type LivenessSpec struct {
	HeartbeatAction string
	MaxStale        time.Duration
}

// PoliciesSpec holds resolved policy settings.
type PoliciesSpec struct {
	Liveness  *LivenessSpec
	Stability bool
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Audit     AuditSpec
	Limits    risk.LimitConfig
	Stress    StressSpec
	Portfolio PortfolioConfig
	Policies  PoliciesSpec
	Orders    []schema.Order
}

const (
	defaultQueueSize       = 1024
	defaultLossFraction    = 0.10
	defaultHeartbeatAction = "heartbeat"
)

// Load reads a JSON config file and resolves it, pulling the audit key
// from the configured environment variable. The key is hex-encoded in the
// environment and never stored in the file.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	audit, err := resolveAudit(cfg.Audit)
	if err != nil {
		return Loaded{}, err
	}
	stress, err := resolveStress(cfg.Scenarios, cfg.Stress)
	if err != nil {
		return Loaded{}, err
	}
	policies, err := resolvePolicies(cfg.Policies)
	if err != nil {
		return Loaded{}, err
	}
	orders, err := resolveOrders(cfg.Orders)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{
		Audit:     audit,
		Limits:    cfg.Limits,
		Stress:    stress,
		Portfolio: cfg.Portfolio,
		Policies:  policies,
		Orders:    orders,
	}, nil
}

func resolveAudit(cfg AuditConfig) (AuditSpec, error) {
	if cfg.Path == "" {
		return AuditSpec{}, fmt.Errorf("audit path is empty")
	}
	if cfg.KeyEnv == "" {
		return AuditSpec{}, fmt.Errorf("audit keyEnv is empty")
	}
	raw := os.Getenv(cfg.KeyEnv)
	if raw == "" {
		return AuditSpec{}, fmt.Errorf("audit key env %s is not set", cfg.KeyEnv)
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return AuditSpec{}, fmt.Errorf("audit key env %s is not hex: %w", cfg.KeyEnv, err)
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return AuditSpec{Path: cfg.Path, Key: key, QueueSize: queueSize}, nil
}

func resolveStress(scenarios []ScenarioConfig, cfg StressConfig) (StressSpec, error) {
	spec := StressSpec{
		WorstCaseLossFraction: defaultLossFraction,
		NotionalScale:         cfg.NotionalScale,
	}
	if s := fmt.Sprint(cfg.WorstCaseLossFraction); s != "" {
		fraction, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return StressSpec{}, fmt.Errorf("invalid worstCaseLossFraction %q: %w", s, err)
		}
		if fraction <= 0 || fraction > 1 {
			return StressSpec{}, fmt.Errorf("worstCaseLossFraction must be in (0,1]: %v", fraction)
		}
		spec.WorstCaseLossFraction = fraction
	}

	if len(scenarios) == 0 {
		spec.Scenarios = risk.DefaultScenarios()
		return spec, nil
	}
	for _, sc := range scenarios {
		if sc.Name == "" {
			return StressSpec{}, fmt.Errorf("scenario name is empty")
		}
		equity, err := shockValue(sc.EquityShock)
		if err != nil {
			return StressSpec{}, fmt.Errorf("scenario %s equityShock: %w", sc.Name, err)
		}
		vol, err := shockValue(sc.VolatilityShock)
		if err != nil {
			return StressSpec{}, fmt.Errorf("scenario %s volatilityShock: %w", sc.Name, err)
		}
		alt, err := shockValue(sc.AlternativesShock)
		if err != nil {
			return StressSpec{}, fmt.Errorf("scenario %s alternativesShock: %w", sc.Name, err)
		}
		spec.Scenarios = append(spec.Scenarios, risk.Scenario{
			Name:              sc.Name,
			EquityShock:       equity,
			VolatilityShock:   vol,
			AlternativesShock: alt,
		})
	}
	return spec, nil
}

func shockValue(d decimal.Decimal) (float64, error) {
	s := fmt.Sprint(d)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func resolvePolicies(cfg PoliciesConfig) (PoliciesSpec, error) {
	spec := PoliciesSpec{Stability: cfg.Stability}
	if cfg.Liveness == nil {
		return spec, nil
	}
	if cfg.Liveness.MaxStale <= 0 {
		return PoliciesSpec{}, fmt.Errorf("liveness maxStale must be > 0")
	}
	action := cfg.Liveness.HeartbeatAction
	if action == "" {
		action = defaultHeartbeatAction
	}
	spec.Liveness = &LivenessSpec{
		HeartbeatAction: action,
		MaxStale:        cfg.Liveness.MaxStale,
	}
	return spec, nil
}

func resolveOrders(orders []OrderConfig) ([]schema.Order, error) {
	resolved := make([]schema.Order, 0, len(orders))
	for i, o := range orders {
		if o.Symbol == "" {
			return nil, fmt.Errorf("order %d: symbol is empty", i)
		}
		if o.Qty <= 0 {
			return nil, fmt.Errorf("order %d: qty must be > 0", i)
		}
		if o.Side == schema.OrderSideUnknown {
			return nil, fmt.Errorf("order %d: side is unknown", i)
		}
		resolved = append(resolved, schema.Order{
			OrderID: o.OrderID,
			Symbol:  o.Symbol,
			Side:    o.Side,
			Type:    o.Type,
			Price:   o.Price,
			Qty:     o.Qty,
		})
	}
	return resolved, nil
}
