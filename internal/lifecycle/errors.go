package lifecycle

import (
	"errors"
	"fmt"

	"github.com/corectl/corectl/internal/identity"
)

// errHealthFalse is the internal sentinel returned through runWithTimeout
// when a health check runs and returns false. probeHealth treats it and a
// timeout alike as unhealthy, and swap reports both as SwapHealthFailed.
var errHealthFalse = errors.New("health check returned false")

// LifecycleError wraps a failure of init/cleanup/pause/resume/drain.
type LifecycleError struct {
	Domain identity.Domain
	Key    string
	Op     string
	Cause  error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("lifecycle error: %s(%s,%s): %v", e.Op, e.Domain, e.Key, e.Cause)
}

func (e *LifecycleError) Unwrap() error { return e.Cause }

// SwapHealthFailedError reports that the new instance's health probe
// returned false or timed out during a swap; the swap rolled back.
type SwapHealthFailedError struct {
	Domain identity.Domain
	Key    string
	Cause  error
}

func (e *SwapHealthFailedError) Error() string {
	msg := fmt.Sprintf("swap health check failed for (%s,%s)", e.Domain, e.Key)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SwapHealthFailedError) Unwrap() error { return e.Cause }

// SwapInProgressError reports that a concurrent swap already holds the
// per-key mutex; the caller may retry.
type SwapInProgressError struct {
	Domain identity.Domain
	Key    string
}

func (e *SwapInProgressError) Error() string {
	return fmt.Sprintf("swap already in progress for (%s,%s)", e.Domain, e.Key)
}

// ResolutionMissError reports that no eligible candidate exists for
// (domain,key). Not a failure per se — returned to let callers distinguish
// "nothing to activate" from a real error.
type ResolutionMissError struct {
	Domain identity.Domain
	Key    string
}

func (e *ResolutionMissError) Error() string {
	return fmt.Sprintf("no eligible candidate for (%s,%s)", e.Domain, e.Key)
}
