package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/corectl/corectl/internal/registry"
)

// State is a live instance's position in the lifecycle state machine
// described in spec.md §3: UNINIT -> INITIALIZING -> READY -> {PAUSED,
// DRAINING} -> CLEANUP -> (removed), with FAILED reachable from
// INITIALIZING on init failure.
type State string

const (
	StateUninit       State = "UNINIT"
	StateInitializing State = "INITIALIZING"
	StateReady        State = "READY"
	StatePaused       State = "PAUSED"
	StateDraining     State = "DRAINING"
	StateCleanup      State = "CLEANUP"
	StateFailed       State = "FAILED"
)

// Initializer is the optional init hook. Missing it is treated as a no-op
// success (spec.md §4.2).
type Initializer interface {
	Init(ctx context.Context) error
}

// HealthChecker is the optional readiness probe. Missing it defaults to
// "ready".
type HealthChecker interface {
	Health(ctx context.Context) bool
}

// Cleaner is the optional teardown hook.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Pauser, Resumer, and Drainer are the optional activity-transition hooks.
type Pauser interface {
	Pause(ctx context.Context) error
}
type Resumer interface {
	Resume(ctx context.Context) error
}
type Drainer interface {
	Drain(ctx context.Context) error
}

// LiveInstance is the constructed object bound to a (domain,key), plus its
// lifecycle bookkeeping. At most one LiveInstance exists per (domain,key)
// at any time (spec.md §3).
type LiveInstance struct {
	mu sync.RWMutex

	Candidate registry.Candidate
	Payload   interface{}
	State     State

	lastHealthOK bool
	lastHealthAt time.Time
}

func newLiveInstance(c registry.Candidate, payload interface{}) *LiveInstance {
	return &LiveInstance{Candidate: c, Payload: payload, State: StateUninit}
}

func (li *LiveInstance) setState(s State) {
	li.mu.Lock()
	li.State = s
	li.mu.Unlock()
}

// CurrentState returns the instance's lifecycle state.
func (li *LiveInstance) CurrentState() State {
	li.mu.RLock()
	defer li.mu.RUnlock()
	return li.State
}

// LastHealth returns the last-known health verdict without re-probing
// (spec.md §4.2's probe=false form).
func (li *LiveInstance) LastHealth() (ok bool, at time.Time) {
	li.mu.RLock()
	defer li.mu.RUnlock()
	return li.lastHealthOK, li.lastHealthAt
}

func (li *LiveInstance) recordHealth(ok bool) {
	li.mu.Lock()
	li.lastHealthOK = ok
	li.lastHealthAt = time.Now()
	li.mu.Unlock()
}

// probeHealth calls the payload's Health hook if present, defaulting to
// true, and records the verdict.
func (li *LiveInstance) probeHealth(ctx context.Context) bool {
	checker, ok := li.Payload.(HealthChecker)
	if !ok {
		li.recordHealth(true)
		return true
	}
	result := runWithTimeout(ctx, func(ctx context.Context) error {
		if !checker.Health(ctx) {
			return errHealthFalse
		}
		return nil
	})
	ok = result == nil
	li.recordHealth(ok)
	return ok
}
