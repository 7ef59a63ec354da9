// Package registry implements the Candidate Registry and Resolver: the
// authoritative store of candidate implementations per (domain,key) and the
// precedence ladder that picks the active one. It is grounded on the
// giantswarm-muster services.Registry pattern (RWMutex-guarded map), widened
// from a single Service type to Candidate sets per domain/key, and combined
// with the ladder described in spec.md §4.1.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/metrics"
	"github.com/corectl/corectl/internal/security"
	"github.com/corectl/corectl/pkg/logging"
)

// EventEmitter is the narrow interface the registry needs from
// internal/events, kept here to avoid a dependency cycle (events depends
// only on pkg/logging within this module). A nil EventEmitter is a valid
// no-op.
type EventEmitter interface {
	Emit(eventType string, fields map[string]interface{})
}

type noopEmitter struct{}

func (noopEmitter) Emit(string, map[string]interface{}) {}

type bucketKey struct {
	domain identity.Domain
	key    string
}

// Registry stores candidates and resolves the active one per (domain,key).
// It is safe for concurrent use: reads (Resolve, ListActive, ListShadowed,
// Explain) take a read lock; writes (Register, Unregister) take a write
// lock, matching spec.md §4.1's readers-writer discipline.
type Registry struct {
	mu         sync.RWMutex
	candidates map[bucketKey]map[identityKey]*Candidate
	overrides  map[bucketKey]string

	checker *security.Checker
	emitter EventEmitter
	clock   func() time.Time
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithChecker sets the factory security checker. Without it, Register always
// rejects factories that fail the built-in default block-list (New installs
// security.NewChecker(nil, nil)), since a factory must always pass some check.
func WithChecker(c *security.Checker) Option {
	return func(r *Registry) { r.checker = c }
}

// WithEmitter sets the event sink used for candidate-registered /
// candidate-unregistered events.
func WithEmitter(e EventEmitter) Option {
	return func(r *Registry) {
		if e != nil {
			r.emitter = e
		}
	}
}

// WithClock overrides the registration-timestamp clock; used by tests that
// need deterministic recency ordering.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// New constructs an empty Registry. Per spec.md §9, registries are
// explicitly instantiable containers, not mandatory singletons.
func New(opts ...Option) *Registry {
	r := &Registry{
		candidates: make(map[bucketKey]map[identityKey]*Candidate),
		overrides:  make(map[bucketKey]string),
		checker:    security.NewChecker(nil, nil),
		emitter:    noopEmitter{},
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates and stores a candidate, replacing any existing
// candidate with the same (domain,key,provider,source). It returns
// *InvalidIdentityError or *InvalidFactoryError on validation failure.
func (r *Registry) Register(c Candidate) error {
	if err := identity.ValidateIdentity(c.Domain, c.Key, c.Provider); err != nil {
		return &InvalidIdentityError{Domain: c.Domain, Key: c.Key, Reason: err}
	}
	if c.Priority != nil && !identity.ValidPriority(*c.Priority) {
		return &InvalidIdentityError{Domain: c.Domain, Key: c.Key, Reason: fmt.Errorf("priority %d out of bounds", *c.Priority)}
	}
	if c.StackLevel != nil && !identity.ValidStackLevel(*c.StackLevel) {
		return &InvalidIdentityError{Domain: c.Domain, Key: c.Key, Reason: fmt.Errorf("stack_level %d out of bounds", *c.StackLevel)}
	}
	if c.Factory != "" {
		if err := r.checker.CheckFactory(c.Domain, c.Key, c.Factory); err != nil {
			return &InvalidFactoryError{Domain: c.Domain, Key: c.Key, Factory: c.Factory, Reason: err}
		}
	}

	bk := bucketKey{domain: c.Domain, key: c.Key}
	ik := c.identityKey()

	r.mu.Lock()
	bucket, ok := r.candidates[bk]
	if !ok {
		bucket = make(map[identityKey]*Candidate)
		r.candidates[bk] = bucket
	}
	if existing, ok := bucket[ik]; ok {
		if c.RegisteredAt.Before(existing.RegisteredAt) {
			c.RegisteredAt = existing.RegisteredAt
		}
		if c.ID == uuid.Nil {
			c.ID = existing.ID
		}
	}
	if c.RegisteredAt.IsZero() {
		c.RegisteredAt = r.clock()
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	stored := c
	bucket[ik] = &stored
	count := r.countDomainLocked(c.Domain)
	r.mu.Unlock()

	metrics.CandidatesRegistered.WithLabelValues(string(c.Domain)).Set(float64(count))
	r.emitter.Emit("candidate-registered", map[string]interface{}{
		"domain": string(c.Domain), "key": c.Key, "provider": c.Provider, "source": string(c.Source),
	})
	logging.Debug("registry", "registered candidate domain=%s key=%s provider=%s source=%s", c.Domain, c.Key, c.Provider, c.Source)
	return nil
}

// Unregister removes the candidate matching (domain,key,provider,source).
// It reports whether a candidate was actually removed.
func (r *Registry) Unregister(domain identity.Domain, key, provider string, source Source) bool {
	bk := bucketKey{domain: domain, key: key}
	ik := identityKey{domain: domain, key: key, provider: provider, source: source}

	r.mu.Lock()
	removed := false
	if bucket, ok := r.candidates[bk]; ok {
		if _, ok := bucket[ik]; ok {
			delete(bucket, ik)
			removed = true
			if len(bucket) == 0 {
				delete(r.candidates, bk)
			}
		}
	}
	count := r.countDomainLocked(domain)
	r.mu.Unlock()

	if removed {
		metrics.CandidatesRegistered.WithLabelValues(string(domain)).Set(float64(count))
		r.emitter.Emit("candidate-unregistered", map[string]interface{}{
			"domain": string(domain), "key": key, "provider": provider, "source": string(source),
		})
		logging.Debug("registry", "unregistered candidate domain=%s key=%s provider=%s source=%s", domain, key, provider, source)
	}
	return removed
}

// SetOverride installs an explicit (domain,key) -> provider selection,
// consulted as precedence rule 1. Used by the local watcher when the
// override table file changes.
func (r *Registry) SetOverride(domain identity.Domain, key, provider string) {
	r.mu.Lock()
	r.overrides[bucketKey{domain: domain, key: key}] = provider
	r.mu.Unlock()
}

// ClearOverride removes an explicit override, reverting to the ladder.
func (r *Registry) ClearOverride(domain identity.Domain, key string) {
	r.mu.Lock()
	delete(r.overrides, bucketKey{domain: domain, key: key})
	r.mu.Unlock()
}

// Resolve returns the active candidate for (domain,key) given capability
// filters, or (Candidate{}, false) if none is eligible. required must all be
// present on an eligible candidate; optional contributes to the capability
// score tie-break. Per spec.md §9(c), a paused/draining instance does not
// affect resolution — that state lives in internal/lifecycle.
func (r *Registry) Resolve(domain identity.Domain, key string, required, optional []string) (Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ranked := r.eligibleLocked(domain, key, required, optional)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return *ranked[0].candidate, true
}

// ResolveWithProviderFilter re-resolves (domain,key) restricted to the
// given provider when non-nil, bypassing the persistent override table for
// this one-shot lookup. Used by swap's re-resolve step (spec.md §4.2).
func (r *Registry) ResolveWithProviderFilter(domain identity.Domain, key string, provider *string) (Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ranked := r.eligibleLockedFiltered(domain, key, nil, nil, provider)
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	return *ranked[0].candidate, true
}

// ListActive returns the active candidate for every key in domain that has
// at least one registered candidate.
func (r *Registry) ListActive(domain identity.Domain) []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Candidate
	for bk := range r.candidates {
		if bk.domain != domain {
			continue
		}
		ranked := r.eligibleLocked(bk.domain, bk.key, nil, nil)
		if len(ranked) > 0 {
			out = append(out, *ranked[0].candidate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// countDomainLocked counts every registered candidate across all keys in
// domain. Callers must hold r.mu.
func (r *Registry) countDomainLocked(domain identity.Domain) int {
	count := 0
	for bk, bucket := range r.candidates {
		if bk.domain == domain {
			count += len(bucket)
		}
	}
	return count
}

// ListShadowed returns every non-active candidate for every key in domain,
// including ones eliminated by an explicit override or the capability
// filter — every registered candidate but the winner remains queryable for
// introspection (spec.md §3). Mirrors Explain's bucket-vs-ranked structure
// rather than just inverting eligibleLocked's output, since eligibleLocked
// silently drops override- and capability-eliminated candidates instead of
// reporting them as shadowed.
func (r *Registry) ListShadowed(domain identity.Domain) []Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Candidate
	for bk, bucket := range r.candidates {
		if bk.domain != domain {
			continue
		}
		ranked := r.eligibleLocked(bk.domain, bk.key, nil, nil)
		var winner *identityKey
		if len(ranked) > 0 {
			ik := ranked[0].candidate.identityKey()
			winner = &ik
		}
		for _, c := range bucket {
			if winner != nil && c.identityKey() == *winner {
				continue
			}
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
