// Package lifecycle implements the Lifecycle Manager: it instantiates
// resolved candidates on demand, runs init/health/cleanup, performs atomic
// hot swaps with rollback, and tracks pause/drain activity state. It is
// grounded on giantswarm-muster's internal/services.GenericServiceInstance
// state machine (internal/services/instance.go), generalized from a single
// MCP-server-process model to an arbitrary opaque payload per (domain,key),
// and combined with golang.org/x/sync/singleflight for the at-most-one-
// concurrent-init rule spec.md §4.2 requires of activate.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/registry"
	"github.com/corectl/corectl/pkg/logging"
)

// EventEmitter is the narrow event-sink interface the manager needs.
type EventEmitter interface {
	Emit(eventType string, fields map[string]interface{})
}

type noopEmitter struct{}

func (noopEmitter) Emit(string, map[string]interface{}) {}

type bkey struct {
	domain identity.Domain
	key    string
}

func (b bkey) String() string { return string(b.domain) + "/" + b.key }

// Manager owns every live instance for the process. Per spec.md §9 it is
// an explicitly instantiable container, not a mandatory singleton.
type Manager struct {
	reg       *registry.Registry
	factories *FactoryTable
	emitter   EventEmitter
	activity  ActivityStore

	initTimeout    time.Duration
	healthTimeout  time.Duration
	cleanupTimeout time.Duration

	mu                sync.Mutex
	instances         map[bkey]*LiveInstance
	keyMutexes        map[bkey]*sync.Mutex
	registrationOrder []bkey

	activateGroup singleflight.Group
}

// Option configures a Manager at construction time.
type Option func(*Manager)

func WithEmitter(e EventEmitter) Option     { return func(m *Manager) { m.emitter = e } }
func WithActivityStore(s ActivityStore) Option { return func(m *Manager) { m.activity = s } }
func WithTimeouts(initT, healthT, cleanupT time.Duration) Option {
	return func(m *Manager) {
		m.initTimeout, m.healthTimeout, m.cleanupTimeout = initT, healthT, cleanupT
	}
}

const (
	defaultInitTimeout    = 30 * time.Second
	defaultHealthTimeout  = 5 * time.Second
	defaultCleanupTimeout = 15 * time.Second
)

// NewManager constructs a Manager bound to reg and factories.
func NewManager(reg *registry.Registry, factories *FactoryTable, opts ...Option) *Manager {
	m := &Manager{
		reg:            reg,
		factories:      factories,
		emitter:        noopEmitter{},
		activity:       NewInMemoryActivityStore(),
		initTimeout:    defaultInitTimeout,
		healthTimeout:  defaultHealthTimeout,
		cleanupTimeout: defaultCleanupTimeout,
		instances:      make(map[bkey]*LiveInstance),
		keyMutexes:     make(map[bkey]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.factories == nil {
		m.factories = Default
	}
	return m
}

func (m *Manager) keyMutex(bk bkey) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.keyMutexes[bk]
	if !ok {
		mu = &sync.Mutex{}
		m.keyMutexes[bk] = mu
	}
	return mu
}

// Instance returns the currently bound live instance for (domain,key), if
// any.
func (m *Manager) Instance(domain identity.Domain, key string) (*LiveInstance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	li, ok := m.instances[bkey{domain: domain, key: key}]
	return li, ok
}

// ListInstances returns every currently bound live instance, in
// registration order, for status reporting (corectl activity).
func (m *Manager) ListInstances() []*LiveInstance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*LiveInstance, 0, len(m.registrationOrder))
	for _, bk := range m.registrationOrder {
		if li, ok := m.instances[bk]; ok {
			out = append(out, li)
		}
	}
	return out
}

func (m *Manager) bindLocked(bk bkey, li *LiveInstance) {
	m.mu.Lock()
	if _, existed := m.instances[bk]; !existed {
		m.registrationOrder = append(m.registrationOrder, bk)
	}
	m.instances[bk] = li
	m.mu.Unlock()
}

func (m *Manager) unbindLocked(bk bkey) {
	m.mu.Lock()
	delete(m.instances, bk)
	m.mu.Unlock()
}

// construct resolves the candidate and invokes its factory, returning the
// opaque payload. It does not run Init.
func (m *Manager) construct(domain identity.Domain, key string, candidate *registry.Candidate) (interface{}, error) {
	fn, err := m.factories.Lookup(candidate.Factory)
	if err != nil {
		return nil, &LifecycleError{Domain: domain, Key: key, Op: "construct", Cause: err}
	}
	payload, err := fn()
	if err != nil {
		return nil, &LifecycleError{Domain: domain, Key: key, Op: "construct", Cause: err}
	}
	return payload, nil
}

func (m *Manager) runInit(ctx context.Context, li *LiveInstance) error {
	initializer, ok := li.Payload.(Initializer)
	if !ok {
		return nil
	}
	ictx, cancel := context.WithTimeout(ctx, m.initTimeout)
	defer cancel()
	return runWithTimeout(ictx, initializer.Init)
}

func (m *Manager) runCleanup(ctx context.Context, payload interface{}) error {
	cleaner, ok := payload.(Cleaner)
	if !ok {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, m.cleanupTimeout)
	defer cancel()
	return runWithTimeout(cctx, cleaner.Cleanup)
}

// Activate resolves (domain,key), constructs and initializes the instance
// if one is not already READY, and returns it. Concurrent callers for the
// same key during initialization are deduplicated via singleflight so at
// most one init runs (spec.md §4.2).
func (m *Manager) Activate(ctx context.Context, domain identity.Domain, key string) (*LiveInstance, error) {
	bk := bkey{domain: domain, key: key}

	if li, ok := m.Instance(domain, key); ok && li.CurrentState() == StateReady {
		return li, nil
	}

	result, err, _ := m.activateGroup.Do(bk.String(), func() (interface{}, error) {
		if li, ok := m.Instance(domain, key); ok && li.CurrentState() == StateReady {
			return li, nil
		}

		candidate, ok := m.reg.Resolve(domain, key, nil, nil)
		if !ok {
			return nil, &ResolutionMissError{Domain: domain, Key: key}
		}

		payload, err := m.construct(domain, key, &candidate)
		if err != nil {
			return nil, err
		}

		li := newLiveInstance(candidate, payload)
		li.setState(StateInitializing)
		if err := m.runInit(ctx, li); err != nil {
			li.setState(StateFailed)
			return nil, &LifecycleError{Domain: domain, Key: key, Op: "init", Cause: err}
		}
		li.setState(StateReady)
		m.bindLocked(bk, li)

		m.emitter.Emit("domain-ready", map[string]interface{}{
			"domain": string(domain), "key": key, "provider": candidate.Provider, "source": string(candidate.Source),
		})
		logging.Info("lifecycle", "activated (%s,%s) provider=%s", domain, key, candidate.Provider)
		return li, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*LiveInstance), nil
}

// Pause toggles the activity record to paused and calls the instance's
// Pause hook if present.
func (m *Manager) Pause(ctx context.Context, domain identity.Domain, key, note string) error {
	return m.transition(ctx, domain, key, note, true, func(payload interface{}) error {
		if p, ok := payload.(Pauser); ok {
			return p.Pause(ctx)
		}
		return nil
	}, StatePaused)
}

// Resume clears the paused activity flag and calls the instance's Resume
// hook if present.
func (m *Manager) Resume(ctx context.Context, domain identity.Domain, key string) error {
	return m.transition(ctx, domain, key, "", false, func(payload interface{}) error {
		if r, ok := payload.(Resumer); ok {
			return r.Resume(ctx)
		}
		return nil
	}, StateReady)
}

// Drain toggles the activity record to draining and calls the instance's
// Drain hook if present.
func (m *Manager) Drain(ctx context.Context, domain identity.Domain, key, note string) error {
	return m.transitionDrain(ctx, domain, key, note, true, StateDraining)
}

// Undrain clears the draining activity flag.
func (m *Manager) Undrain(ctx context.Context, domain identity.Domain, key string) error {
	return m.transitionDrain(ctx, domain, key, "", false, StateReady)
}

func (m *Manager) transition(ctx context.Context, domain identity.Domain, key, note string, paused bool, hook func(interface{}) error, nextState State) error {
	bk := bkey{domain: domain, key: key}
	mu := m.keyMutex(bk)
	mu.Lock()
	defer mu.Unlock()

	li, ok := m.Instance(domain, key)
	if ok {
		if err := hook(li.Payload); err != nil {
			return &LifecycleError{Domain: domain, Key: key, Op: "pause_or_resume", Cause: err}
		}
		li.setState(nextState)
	}

	rec, _, err := m.activity.Get(domain, key)
	if err != nil {
		return fmt.Errorf("read activity record: %w", err)
	}
	rec.Domain, rec.Key, rec.Paused, rec.Note = domain, key, paused, note
	if err := m.activity.Set(rec); err != nil {
		return fmt.Errorf("persist activity record: %w", err)
	}
	return nil
}

func (m *Manager) transitionDrain(ctx context.Context, domain identity.Domain, key, note string, draining bool, nextState State) error {
	bk := bkey{domain: domain, key: key}
	mu := m.keyMutex(bk)
	mu.Lock()
	defer mu.Unlock()

	li, ok := m.Instance(domain, key)
	if ok {
		if draining {
			if d, ok := li.Payload.(Drainer); ok {
				if err := d.Drain(ctx); err != nil {
					return &LifecycleError{Domain: domain, Key: key, Op: "drain", Cause: err}
				}
			}
		}
		li.setState(nextState)
	}

	rec, _, err := m.activity.Get(domain, key)
	if err != nil {
		return fmt.Errorf("read activity record: %w", err)
	}
	rec.Domain, rec.Key, rec.Draining, rec.Note = domain, key, draining, note
	if err := m.activity.Set(rec); err != nil {
		return fmt.Errorf("persist activity record: %w", err)
	}
	return nil
}

// IsPausedOrDraining reports whether the activity record for (domain,key)
// currently marks it paused or draining — consulted by the orchestrator to
// defer swaps (spec.md §4.4).
func (m *Manager) IsPausedOrDraining(domain identity.Domain, key string) (bool, error) {
	rec, ok, err := m.activity.Get(domain, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return rec.Paused || rec.Draining, nil
}

// Cleanup runs the instance's Cleanup hook and unbinds it.
func (m *Manager) Cleanup(ctx context.Context, domain identity.Domain, key string) error {
	bk := bkey{domain: domain, key: key}
	mu := m.keyMutex(bk)
	mu.Lock()
	defer mu.Unlock()

	li, ok := m.Instance(domain, key)
	if !ok {
		return nil
	}
	li.setState(StateCleanup)
	if err := m.runCleanup(ctx, li.Payload); err != nil {
		logging.Warn("lifecycle", "cleanup error for (%s,%s): %v", domain, key, err)
	}
	m.unbindLocked(bk)
	return nil
}

// CleanupAll runs Cleanup for every live instance in reverse registration
// order, the shutdown hook described in spec.md §4.2.
func (m *Manager) CleanupAll(ctx context.Context) {
	m.mu.Lock()
	order := make([]bkey, len(m.registrationOrder))
	copy(order, m.registrationOrder)
	m.mu.Unlock()

	for i := len(order) - 1; i >= 0; i-- {
		bk := order[i]
		if err := m.Cleanup(ctx, bk.domain, bk.key); err != nil {
			logging.Warn("lifecycle", "cleanup_all error for (%s,%s): %v", bk.domain, bk.key, err)
		}
	}
}

// Health reports the instance's health. When probe is true the hook is
// re-invoked; when false the last known verdict is returned (acceptable
// for snapshotting endpoints per spec.md §4.2).
func (m *Manager) Health(ctx context.Context, domain identity.Domain, key string, probe bool) (ok bool, found bool) {
	li, exists := m.Instance(domain, key)
	if !exists {
		return false, false
	}
	if !probe {
		ok, _ = li.LastHealth()
		return ok, true
	}
	hctx, cancel := context.WithTimeout(ctx, m.healthTimeout)
	defer cancel()
	return li.probeHealth(hctx), true
}
