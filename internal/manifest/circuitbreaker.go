package manifest

import (
	"fmt"
	"sync"
	"time"
)

// breakerState is grounded on the Closed/Open/HalfOpen model in
// r3e-network-service_layer/infrastructure/resilience/circuit_breaker.go,
// adapted from a generic RPC guard to the manifest fetch path specifically.
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "closed"
	case breakerOpen:
		return "open"
	case breakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker opens after MaxFailures consecutive fetch failures and
// refuses calls until Timeout elapses, after which it allows a single
// probe call (half-open) to decide whether to close again.
type CircuitBreaker struct {
	MaxFailures int
	Timeout     time.Duration

	mu          sync.Mutex
	state       breakerState
	failures    int
	openedAt    time.Time
}

// DefaultCircuitBreaker returns a breaker tuned for manifest fetches: open
// after 5 consecutive failures, half-open probe after 30s.
func DefaultCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{MaxFailures: 5, Timeout: 30 * time.Second, state: breakerClosed}
}

var errCircuitOpen = fmt.Errorf("circuit breaker open: manifest fetch temporarily disabled")

// Allow reports whether a call may proceed, transitioning Open -> HalfOpen
// once Timeout has elapsed.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case breakerOpen:
		if time.Since(cb.openedAt) >= cb.Timeout {
			cb.state = breakerHalfOpen
			return nil
		}
		return errCircuitOpen
	case breakerHalfOpen:
		return errCircuitOpen
	default:
		return nil
	}
}

// RecordSuccess closes the breaker and resets the failure count.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = breakerClosed
	cb.failures = 0
}

// RecordFailure increments the failure count, opening the breaker once
// MaxFailures consecutive failures have been observed.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.state == breakerHalfOpen || cb.failures >= cb.MaxFailures {
		cb.state = breakerOpen
		cb.openedAt = time.Now()
	}
}

// State reports the breaker's current state, for diagnostics.
func (cb *CircuitBreaker) State() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state.String()
}
