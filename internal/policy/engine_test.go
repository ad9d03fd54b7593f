package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

type stubPolicy struct {
	name  string
	allow bool
	calls int
}

func (s *stubPolicy) Name() string       { return s.name }
func (s *stubPolicy) Constraint() string { return "stub constraint for " + s.name }
func (s *stubPolicy) Allows(schema.DecisionRequest) bool {
	s.calls++
	return s.allow
}

func TestVerifyDecisionShortCircuits(t *testing.T) {
	engine := NewEngine()
	first := &stubPolicy{name: "first", allow: false}
	second := &stubPolicy{name: "second", allow: true}
	engine.RegisterPolicy(first)
	engine.RegisterPolicy(second)

	proof := engine.VerifyDecision(schema.DecisionRequest{Action: "rebalance"})
	require.False(t, proof.Approved)
	assert.Equal(t, "first", proof.Policy)
	assert.Equal(t, first.Constraint(), proof.Constraint)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "second policy must never run after a rejection")
}

func TestVerifyDecisionAllPass(t *testing.T) {
	engine := NewEngine()
	engine.RegisterPolicy(&stubPolicy{name: "a", allow: true})
	engine.RegisterPolicy(&stubPolicy{name: "b", allow: true})

	proof := engine.VerifyDecision(schema.DecisionRequest{Action: "anything"})
	assert.True(t, proof.Approved)
	assert.Empty(t, proof.Policy)
}

func TestVerifyDecisionEmptyEngine(t *testing.T) {
	proof := NewEngine().VerifyDecision(schema.DecisionRequest{Action: "noop"})
	assert.True(t, proof.Approved)
}

func TestRegisterPolicyOverwriteKeepsSlot(t *testing.T) {
	engine := NewEngine()
	engine.RegisterPolicy(&stubPolicy{name: "gate", allow: true})
	engine.RegisterPolicy(&stubPolicy{name: "tail", allow: false})
	// Replacing "gate" with a rejecting policy must keep it first in line.
	engine.RegisterPolicy(&stubPolicy{name: "gate", allow: false})

	proof := engine.VerifyDecision(schema.DecisionRequest{Action: "x"})
	require.False(t, proof.Approved)
	assert.Equal(t, "gate", proof.Policy)
}

func TestRegisterNilPolicyPanics(t *testing.T) {
	assert.Panics(t, func() { NewEngine().RegisterPolicy(nil) })
}

func TestLivenessInvariantTiming(t *testing.T) {
	clock := time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC)
	liveness := NewLivenessInvariant(30*time.Second, "heartbeat")
	liveness.now = func() time.Time { return clock }
	liveness.last = clock

	assert.True(t, liveness.Allows(schema.DecisionRequest{Action: "trade"}),
		"fresh invariant must pass")

	clock = clock.Add(31 * time.Second)
	assert.False(t, liveness.Allows(schema.DecisionRequest{Action: "trade"}),
		"stale heartbeat must fail non-heartbeat actions")

	assert.True(t, liveness.Allows(schema.DecisionRequest{Action: "heartbeat"}),
		"heartbeat action passes unconditionally")

	clock = clock.Add(29 * time.Second)
	assert.True(t, liveness.Allows(schema.DecisionRequest{Action: "trade"}),
		"heartbeat must reset the window")
}

func TestStabilityPolicyMonotonicity(t *testing.T) {
	stability := NewStabilityPolicy()

	request := func(leverage, vol, drawdown float64) schema.DecisionRequest {
		return schema.DecisionRequest{
			Action:  "adjust",
			Context: schema.SystemState{Leverage: leverage, Volatility: vol, Drawdown: drawdown},
		}
	}

	// Increasing V: first call sets the baseline, the rest must fail.
	assert.True(t, stability.Allows(request(1, 0.1, 0.05)))
	assert.False(t, stability.Allows(request(2, 0.1, 0.05)))
	assert.False(t, stability.Allows(request(3, 0.2, 0.10)))

	// Non-increasing V always passes.
	calm := NewStabilityPolicy()
	assert.True(t, calm.Allows(request(3, 0.3, 0.2)))
	assert.True(t, calm.Allows(request(2, 0.3, 0.1)))
	assert.True(t, calm.Allows(request(2, 0.3, 0.1)))
	assert.True(t, calm.Allows(request(1, 0.1, 0.0)))
}

func TestStabilityPolicyFailsClosed(t *testing.T) {
	stability := NewStabilityPolicy()
	assert.False(t, stability.Allows(schema.DecisionRequest{Action: "adjust", Context: "not a snapshot"}))
	assert.False(t, stability.Allows(schema.DecisionRequest{Action: "adjust"}))
	// Malformed requests must not move the baseline.
	assert.True(t, stability.Allows(schema.DecisionRequest{
		Action:  "adjust",
		Context: schema.SystemState{Leverage: 1, Volatility: 0.5, Drawdown: 0.2},
	}))
}
