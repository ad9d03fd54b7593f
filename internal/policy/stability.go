package policy

import (
	"math"
	"sync"

	"main/internal/schema"
)

// StabilityPolicy certifies stability via a Lyapunov scalar
// V = leverage^2 * volatility + 0.5 * drawdown^2 that must not increase
// between accepted requests. The first accepted request sets the baseline.
type StabilityPolicy struct {
	mu   sync.Mutex
	last float64
}

// NewStabilityPolicy creates the policy with an infinite baseline, so the
// first well-formed request always passes.
func NewStabilityPolicy() *StabilityPolicy {
	return &StabilityPolicy{last: math.Inf(1)}
}

func (s *StabilityPolicy) Name() string {
	return "stability"
}

func (s *StabilityPolicy) Constraint() string {
	return "system Lyapunov function V = leverage^2*volatility + 0.5*drawdown^2 must be non-increasing"
}

// Allows rejects any request whose context is not a SystemState snapshot:
// a malformed request fails closed, never open.
func (s *StabilityPolicy) Allows(request schema.DecisionRequest) bool {
	snapshot, ok := request.Context.(schema.SystemState)
	if !ok {
		return false
	}
	v := snapshot.Leverage*snapshot.Leverage*snapshot.Volatility + 0.5*snapshot.Drawdown*snapshot.Drawdown

	s.mu.Lock()
	defer s.mu.Unlock()
	if v > s.last {
		return false
	}
	s.last = v
	return true
}
