package policy

import (
	"sync"

	"main/internal/schema"
)

// Policy is a pluggable formal constraint over a decision request.
// Implementations may keep internal state; Allows must be safe for
// concurrent callers.
type Policy interface {
	Name() string
	Constraint() string
	Allows(request schema.DecisionRequest) bool
}

// Proof is the outcome of verifying a request against the engine.
// Rejection is an ordinary value, never an error.
type Proof struct {
	Approved   bool
	Policy     string
	Constraint string
}

// Approve returns a passing proof.
func Approve() Proof {
	return Proof{Approved: true}
}

// Reject returns a failing proof attributed to the named policy.
func Reject(name, constraint string) Proof {
	return Proof{Policy: name, Constraint: constraint}
}

// Engine evaluates decision requests against an ordered policy set,
// short-circuiting on the first rejection.
type Engine struct {
	mu       sync.RWMutex
	order    []string
	policies map[string]Policy
}

// NewEngine creates an empty policy engine.
func NewEngine() *Engine {
	return &Engine{policies: make(map[string]Policy)}
}

// RegisterPolicy appends a policy to the ordered set. Re-registering a name
// replaces the policy in its original slot; evaluation order is observable
// through rejection attribution and must stay deterministic.
func (e *Engine) RegisterPolicy(p Policy) {
	if p == nil {
		panic("policy: register nil policy")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.policies[p.Name()]; !ok {
		e.order = append(e.order, p.Name())
	}
	e.policies[p.Name()] = p
}

// VerifyDecision evaluates policies in registration order. The first policy
// that disallows the request decides the proof; later policies never run.
func (e *Engine) VerifyDecision(request schema.DecisionRequest) Proof {
	e.mu.RLock()
	ordered := make([]Policy, 0, len(e.order))
	for _, name := range e.order {
		ordered = append(ordered, e.policies[name])
	}
	e.mu.RUnlock()

	for _, p := range ordered {
		if !p.Allows(request) {
			return Reject(p.Name(), p.Constraint())
		}
	}
	return Approve()
}
