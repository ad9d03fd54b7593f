package policy

import (
	"fmt"
	"sync"
	"time"

	"main/internal/schema"
)

// LivenessInvariant requires a designated heartbeat action to occur within a
// bounded window. The heartbeat action itself always passes and resets the
// window; any other action fails once the window is exceeded.
type LivenessInvariant struct {
	mu              sync.Mutex
	maxStale        time.Duration
	heartbeatAction string
	last            time.Time
	now             func() time.Time
}

// NewLivenessInvariant creates the invariant with the window starting at
// construction time.
func NewLivenessInvariant(maxStale time.Duration, heartbeatAction string) *LivenessInvariant {
	l := &LivenessInvariant{
		maxStale:        maxStale,
		heartbeatAction: heartbeatAction,
		now:             time.Now,
	}
	l.last = l.now()
	return l
}

func (l *LivenessInvariant) Name() string {
	return "liveness"
}

func (l *LivenessInvariant) Constraint() string {
	return fmt.Sprintf("action %q must occur at least every %s", l.heartbeatAction, l.maxStale)
}

func (l *LivenessInvariant) Allows(request schema.DecisionRequest) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if request.Action == l.heartbeatAction {
		l.last = l.now()
		return true
	}
	return l.now().Sub(l.last) <= l.maxStale
}
