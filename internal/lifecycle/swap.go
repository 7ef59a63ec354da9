package lifecycle

import (
	"context"
	"time"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/metrics"
)

// Swap performs the atomic hot-swap sequence from spec.md §4.2. provider,
// when non-nil, restricts re-resolution to that provider (a manual
// "swap to X" request); force bypasses a failing health check.
func (m *Manager) Swap(ctx context.Context, domain identity.Domain, key string, provider *string, force bool) (*LiveInstance, error) {
	start := time.Now()
	bk := bkey{domain: domain, key: key}
	mu := m.keyMutex(bk)
	if !mu.TryLock() {
		metrics.SwapInProgressRejections.WithLabelValues(string(domain)).Inc()
		return nil, &SwapInProgressError{Domain: domain, Key: key}
	}
	defer mu.Unlock()

	// Step 2: re-resolve with the optional provider filter.
	candidate, ok := m.reg.ResolveWithProviderFilter(domain, key, provider)
	if !ok {
		metrics.ObserveSwap(string(domain), "resolution-miss", start)
		return nil, &ResolutionMissError{Domain: domain, Key: key}
	}

	old, hadOld := m.Instance(domain, key)
	if hadOld && !force && old.Candidate.IdentityKeyEquals(candidate) {
		// No-op: the resolved candidate is unchanged.
		metrics.ObserveSwap(string(domain), "noop", start)
		return old, nil
	}

	// Step 3: construct and init the new candidate.
	payload, err := m.construct(domain, key, &candidate)
	if err != nil {
		metrics.ObserveSwap(string(domain), "construct-error", start)
		return nil, err
	}
	newInstance := newLiveInstance(candidate, payload)
	newInstance.setState(StateInitializing)
	if err := m.runInit(ctx, newInstance); err != nil {
		newInstance.setState(StateFailed)
		m.emitter.Emit("swap-failed", map[string]interface{}{
			"domain": string(domain), "key": key, "provider": candidate.Provider,
		})
		metrics.ObserveSwap(string(domain), "init-error", start)
		return nil, &LifecycleError{Domain: domain, Key: key, Op: "init", Cause: err}
	}

	// Step 4: health-check the new candidate.
	hctx, cancel := context.WithTimeout(ctx, m.healthTimeout)
	healthy := newInstance.probeHealth(hctx)
	cancel()
	metrics.ObserveHealth(string(domain), healthy)
	if !healthy && !force {
		_ = m.runCleanup(ctx, newInstance.Payload)
		m.emitter.Emit("swap-failed", map[string]interface{}{
			"domain": string(domain), "key": key, "provider": candidate.Provider,
		})
		metrics.ObserveSwap(string(domain), "health-failed", start)
		return nil, &SwapHealthFailedError{Domain: domain, Key: key}
	}

	// Step 5: pre-swap event, then atomic replace.
	m.emitter.Emit("pre-swap", map[string]interface{}{
		"domain": string(domain), "key": key, "provider": candidate.Provider, "source": string(candidate.Source),
	})
	newInstance.setState(StateReady)
	m.bindLocked(bk, newInstance)

	// Step 6: cleanup the old instance; failures are logged, not fatal.
	if hadOld {
		if err := m.runCleanup(ctx, old.Payload); err != nil {
			m.emitter.Emit("lifecycle-error", map[string]interface{}{
				"domain": string(domain), "key": key, "provider": old.Candidate.Provider, "fields": err.Error(),
			})
		}
	}

	// Step 7: post-swap event.
	m.emitter.Emit("post-swap", map[string]interface{}{
		"domain": string(domain), "key": key, "provider": candidate.Provider, "source": string(candidate.Source),
	})
	m.emitter.Emit("swap-complete", map[string]interface{}{
		"domain": string(domain), "key": key, "provider": candidate.Provider,
	})
	metrics.ObserveSwap(string(domain), "success", start)
	return newInstance, nil
}
