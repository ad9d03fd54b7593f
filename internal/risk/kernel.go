package risk

import (
	"sync"

	"main/internal/governance"
	"main/internal/schema"
)

// KernelModelID attributes verdicts produced by the kernel itself rather
// than by a registered model.
const KernelModelID = "kernel"

const (
	ReasonKillSwitch  = "Kill Switch Active"
	ReasonMaintenance = "System Maintenance"
	ReasonApproved    = "all risk checks passed"
)

// Model is a pluggable per-order risk check. Implementations must be safe
// for concurrent Check calls.
type Model interface {
	ModelID() string
	Check(order schema.Order, portfolio schema.Portfolio) schema.RiskCheckResult
}

// Kernel is the single authoritative order-admission gate. It reads the
// governance state first, then evaluates registered models in registration
// order, stopping at the first denial. Exhaustive evaluation would only add
// latency without changing the verdict.
type Kernel struct {
	state *governance.StateVar

	mu     sync.RWMutex
	order  []string
	models map[string]Model
}

// NewKernel creates a kernel reading the given governance state.
func NewKernel(state *governance.StateVar) *Kernel {
	return &Kernel{
		state:  state,
		models: make(map[string]Model),
	}
}

// RegisterModel inserts or overwrites a model by id. Re-registration keeps
// the model's original evaluation slot; order is observable through
// fail-fast denial reasons and must stay deterministic. A nil model is a
// caller bug.
func (k *Kernel) RegisterModel(m Model) {
	if m == nil {
		panic("risk: register nil model")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.models[m.ModelID()]; !ok {
		k.order = append(k.order, m.ModelID())
	}
	k.models[m.ModelID()] = m
}

// ValidateOrder returns the admission verdict for an order against the
// current portfolio. Governance state blocks admission before any model
// runs; otherwise the first denying model decides.
func (k *Kernel) ValidateOrder(order schema.Order, portfolio schema.Portfolio) schema.RiskCheckResult {
	switch k.state.Load() {
	case governance.StateKillSwitchActive:
		return schema.RiskCheckResult{
			Reason:     ReasonKillSwitch,
			ModelID:    KernelModelID,
			Confidence: 1.0,
		}
	case governance.StateMaintenance:
		return schema.RiskCheckResult{
			Reason:     ReasonMaintenance,
			ModelID:    KernelModelID,
			Confidence: 1.0,
		}
	}

	k.mu.RLock()
	ordered := make([]Model, 0, len(k.order))
	for _, id := range k.order {
		ordered = append(ordered, k.models[id])
	}
	k.mu.RUnlock()

	for _, m := range ordered {
		if result := m.Check(order, portfolio); !result.Allowed {
			return result
		}
	}
	return schema.RiskCheckResult{
		Allowed:    true,
		Reason:     ReasonApproved,
		ModelID:    KernelModelID,
		Confidence: 1.0,
	}
}
