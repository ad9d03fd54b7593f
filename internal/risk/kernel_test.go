package risk

import (
	"testing"

	"main/internal/governance"
	"main/internal/schema"
)

type stubModel struct {
	id    string
	allow bool
	calls int
}

func (s *stubModel) ModelID() string { return s.id }
func (s *stubModel) Check(schema.Order, schema.Portfolio) schema.RiskCheckResult {
	s.calls++
	return schema.RiskCheckResult{
		Allowed:    s.allow,
		Reason:     "reason " + s.id,
		ModelID:    s.id,
		Confidence: 1.0,
	}
}

func testOrder() schema.Order {
	return schema.Order{OrderID: 1, Symbol: "ESZ6", Side: schema.OrderSideBuy, Price: 100, Qty: 10}
}

func TestValidateOrderFailFastOrder(t *testing.T) {
	state := governance.NewStateVar()

	// [deny, allow]: the denial surfaces.
	kernel := NewKernel(state)
	m1 := &stubModel{id: "m1", allow: false}
	m2 := &stubModel{id: "m2", allow: true}
	kernel.RegisterModel(m1)
	kernel.RegisterModel(m2)

	result := kernel.ValidateOrder(testOrder(), schema.Portfolio{})
	if result.Allowed {
		t.Fatal("expected denial")
	}
	if result.Reason != "reason m1" || result.ModelID != "m1" {
		t.Fatalf("denial not attributed to m1: %+v", result)
	}
	if m2.calls != 0 {
		t.Fatalf("m2 evaluated after denial: %d calls", m2.calls)
	}

	// [allow, deny]: m1 still decides once reached; m2's allow never
	// surfaces as the overall reason.
	kernel = NewKernel(state)
	m1 = &stubModel{id: "m1", allow: false}
	m2 = &stubModel{id: "m2", allow: true}
	kernel.RegisterModel(m2)
	kernel.RegisterModel(m1)

	result = kernel.ValidateOrder(testOrder(), schema.Portfolio{})
	if result.Allowed {
		t.Fatal("expected denial")
	}
	if result.Reason != "reason m1" {
		t.Fatalf("reason mismatch: %q", result.Reason)
	}
	if m2.calls != 1 {
		t.Fatalf("m2 should have been evaluated first: %d calls", m2.calls)
	}
}

func TestValidateOrderKillSwitchPrecedence(t *testing.T) {
	state := governance.NewStateVar()
	supervisor := governance.NewSupervisor(state, nil)
	if _, err := supervisor.Transition(governance.StateKillSwitchActive, "test", "drill"); err != nil {
		t.Fatalf("transition: %v", err)
	}

	kernel := NewKernel(state)
	allowAll := &stubModel{id: "permissive", allow: true}
	kernel.RegisterModel(allowAll)

	result := kernel.ValidateOrder(testOrder(), schema.Portfolio{})
	if result.Allowed {
		t.Fatal("kill switch must deny")
	}
	if result.Reason != ReasonKillSwitch {
		t.Fatalf("reason mismatch: %q", result.Reason)
	}
	if result.Confidence != 1.0 {
		t.Fatalf("confidence mismatch: %v", result.Confidence)
	}
	if allowAll.calls != 0 {
		t.Fatal("models must not run under kill switch")
	}
}

func TestValidateOrderMaintenance(t *testing.T) {
	state := governance.NewStateVar()
	supervisor := governance.NewSupervisor(state, nil)
	if _, err := supervisor.Transition(governance.StateMaintenance, "test", "upgrade"); err != nil {
		t.Fatalf("transition: %v", err)
	}

	kernel := NewKernel(state)
	result := kernel.ValidateOrder(testOrder(), schema.Portfolio{})
	if result.Allowed || result.Reason != ReasonMaintenance {
		t.Fatalf("maintenance verdict mismatch: %+v", result)
	}
}

func TestValidateOrderAllModelsAllow(t *testing.T) {
	kernel := NewKernel(governance.NewStateVar())
	kernel.RegisterModel(&stubModel{id: "a", allow: true})
	kernel.RegisterModel(&stubModel{id: "b", allow: true})

	result := kernel.ValidateOrder(testOrder(), schema.Portfolio{})
	if !result.Allowed {
		t.Fatalf("expected approval: %+v", result)
	}
	if result.ModelID != KernelModelID || result.Reason != ReasonApproved {
		t.Fatalf("approval attribution mismatch: %+v", result)
	}
}

func TestValidateOrderNoModels(t *testing.T) {
	kernel := NewKernel(governance.NewStateVar())
	if result := kernel.ValidateOrder(testOrder(), schema.Portfolio{}); !result.Allowed {
		t.Fatalf("empty registry must approve: %+v", result)
	}
}

func TestRegisterModelNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on nil model")
		}
	}()
	NewKernel(governance.NewStateVar()).RegisterModel(nil)
}

func TestRegisterModelOverwriteKeepsSlot(t *testing.T) {
	kernel := NewKernel(governance.NewStateVar())
	kernel.RegisterModel(&stubModel{id: "gate", allow: true})
	kernel.RegisterModel(&stubModel{id: "tail", allow: false})
	kernel.RegisterModel(&stubModel{id: "gate", allow: false})

	result := kernel.ValidateOrder(testOrder(), schema.Portfolio{})
	if result.Allowed {
		t.Fatal("expected denial")
	}
	if result.ModelID != "gate" {
		t.Fatalf("overwritten model lost its slot: %+v", result)
	}
}
