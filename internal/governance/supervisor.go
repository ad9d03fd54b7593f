package governance

import (
	"errors"
	"fmt"
	"sync"
	"time"

	yerrors "github.com/yanun0323/errors"

	"main/internal/auditlog"
	"main/internal/codec"
	"main/internal/schema"
)

var ErrInvalidTransition = errors.New("invalid governance state transition")

// Supervisor is the administrative owner of governance transitions. Every
// accepted transition is recorded in the audit journal before the state
// becomes visible to admission checks.
type Supervisor struct {
	mu    sync.Mutex
	state *StateVar
	log   *auditlog.Log
	seq   uint64
	now   func() time.Time
}

// NewSupervisor creates a supervisor over the given state variable. The
// journal may be nil for callers that audit elsewhere.
func NewSupervisor(state *StateVar, log *auditlog.Log) *Supervisor {
	return &Supervisor{state: state, log: log, now: time.Now}
}

// Transition moves the system to the requested state. Illegal moves return
// ErrInvalidTransition and leave the state untouched.
func (s *Supervisor) Transition(to State, approverID, rationale string) (schema.GovernanceDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.state.Load()
	if !legalTransition(from, to) {
		return schema.GovernanceDecision{}, ErrInvalidTransition
	}

	s.seq++
	decision := schema.GovernanceDecision{
		ID:         fmt.Sprintf("gov-%06d", s.seq),
		Timestamp:  s.now().UTC(),
		PolicyName: fmt.Sprintf("transition:%s->%s", from, to),
		ApproverID: approverID,
		Approved:   true,
		Rationale:  rationale,
	}

	if s.log != nil {
		payload, ok := codec.EncodeGovernanceDecision(nil, decision)
		if !ok {
			s.seq--
			return schema.GovernanceDecision{}, yerrors.New("encode governance decision")
		}
		if err := s.log.Append(schema.RecordGovernanceDecision, payload); err != nil {
			s.seq--
			return schema.GovernanceDecision{}, yerrors.Wrap(err, "record governance decision")
		}
	}

	s.state.store(to)
	return decision, nil
}

func legalTransition(from, to State) bool {
	switch from {
	case StateNormal:
		return to == StateMaintenance || to == StateKillSwitchActive
	case StateMaintenance:
		return to == StateNormal || to == StateKillSwitchActive
	case StateKillSwitchActive:
		return to == StateNormal
	default:
		return false
	}
}
