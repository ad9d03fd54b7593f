package governance

import "sync/atomic"

// State is the system-wide operating mode. It is read on every admission
// check and written only through supervised transitions.
type State uint32

const (
	StateNormal State = iota
	StateMaintenance
	StateKillSwitchActive
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateMaintenance:
		return "Maintenance"
	case StateKillSwitchActive:
		return "KillSwitchActive"
	default:
		return "Unknown"
	}
}

// StateVar holds the governance state behind an atomic load so admission
// checks always observe the latest transition without locking. Each kernel
// owns one instance; there is no ambient global.
type StateVar struct {
	v uint32
}

// NewStateVar starts in Normal.
func NewStateVar() *StateVar {
	return &StateVar{}
}

// Load returns the current state.
func (s *StateVar) Load() State {
	return State(atomic.LoadUint32(&s.v))
}

func (s *StateVar) store(next State) {
	atomic.StoreUint32(&s.v, uint32(next))
}
