package manifest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/registry"
	"github.com/corectl/corectl/internal/security"
	"github.com/corectl/corectl/pkg/logging"
)

// EventEmitter is the narrow event-sink interface the loader needs.
type EventEmitter interface {
	Emit(eventType string, fields map[string]interface{})
}

type noopEmitter struct{}

func (noopEmitter) Emit(string, map[string]interface{}) {}

// Loader runs the fetch pipeline from spec.md §4.3: fetch, canonicalize,
// verify signature, validate entries, fetch artifacts, register.
type Loader struct {
	fetcher *Fetcher
	cache   *ArtifactCache
	checker *security.Checker
	trust   TrustSet
	reg     *registry.Registry
	emitter EventEmitter

	mu       sync.Mutex
	lastGood *FetchedManifest
}

// LoaderOption configures a Loader at construction time.
type LoaderOption func(*Loader)

func WithEmitter(e EventEmitter) LoaderOption { return func(l *Loader) { l.emitter = e } }
func WithTrustSet(t TrustSet) LoaderOption    { return func(l *Loader) { l.trust = t } }
func WithChecker(c *security.Checker) LoaderOption {
	return func(l *Loader) { l.checker = c }
}

// NewLoader constructs a Loader. cache may be nil if this loader never
// resolves entries that ship artifact bytes.
func NewLoader(fetcher *Fetcher, cache *ArtifactCache, reg *registry.Registry, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		cache:   cache,
		checker: security.NewChecker(nil, nil),
		trust:   make(TrustSet),
		reg:     reg,
		emitter: noopEmitter{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs the full pipeline for the manifest at uri and registers every
// surviving entry with the registry. It returns the number of candidates
// registered. Fetch failures degrade to the last valid cached manifest
// before giving up as a no-op (spec.md §4.3 "offline degradation").
func (l *Loader) Load(ctx context.Context, uri string) (int, error) {
	fetched, err := l.fetchAndVerify(ctx, uri)
	if err != nil {
		l.mu.Lock()
		cached := l.lastGood
		l.mu.Unlock()
		if cached == nil {
			logging.Warn("manifest", "fetch failed for %s and no cached copy exists: %v", uri, err)
			return 0, nil
		}
		logging.Warn("manifest", "fetch failed for %s, falling back to cached manifest: %v", uri, err)
		fetched = cached
		fetched.FromCache = true
	} else {
		l.mu.Lock()
		l.lastGood = fetched
		l.mu.Unlock()
	}

	return l.registerEntries(ctx, fetched.Document)
}

// Status summarizes the loader's state for "corectl manifest status".
type Status struct {
	HasCachedManifest bool
	LastFetchedAt     time.Time
	FromCache         bool
	BreakerState      string
}

// Status returns a snapshot of the loader's current state.
func (l *Loader) Status() Status {
	l.mu.Lock()
	cached := l.lastGood
	l.mu.Unlock()

	st := Status{BreakerState: l.fetcher.BreakerState()}
	if cached != nil {
		st.HasCachedManifest = true
		st.LastFetchedAt = cached.FetchedAt
		st.FromCache = cached.FromCache
	}
	return st
}

func (l *Loader) fetchAndVerify(ctx context.Context, uri string) (*FetchedManifest, error) {
	raw, err := l.fetcher.Fetch(ctx, uri)
	if err != nil {
		return nil, &ManifestFetchError{Source: uri, Cause: err}
	}

	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, &ManifestFetchError{Source: uri, Cause: err}
	}

	canon, err := Canonicalize(doc)
	if err != nil {
		return nil, &ManifestFetchError{Source: uri, Cause: err}
	}

	if err := VerifySignature(canon, doc.Signature, l.trust); err != nil {
		l.emitter.Emit("lifecycle-error", map[string]interface{}{
			"fields": fmt.Sprintf("manifest signature verification failed for %s: %v", uri, err),
		})
		return nil, &ManifestFetchError{Source: uri, Cause: err}
	}

	return &FetchedManifest{Document: doc, Raw: raw, Canon: canon, FetchedAt: time.Now()}, nil
}

// registerEntries validates and registers every entry, skipping (not
// failing the whole manifest for) any entry that fails validation,
// digest verification, or the security check.
func (l *Loader) registerEntries(ctx context.Context, doc Document) (int, error) {
	registered := 0
	for _, entry := range doc.Entries {
		candidate, err := l.validateAndBuild(ctx, entry)
		if err != nil {
			logging.Warn("manifest", "rejected manifest entry (%s,%s): %v", entry.Domain, entry.Key, err)
			continue
		}
		if err := l.reg.Register(*candidate); err != nil {
			logging.Warn("manifest", "registry refused entry (%s,%s): %v", entry.Domain, entry.Key, err)
			continue
		}
		registered++
	}
	return registered, nil
}

func (l *Loader) validateAndBuild(ctx context.Context, entry Entry) (*registry.Candidate, error) {
	domain := identity.Domain(entry.Domain)
	if err := identity.ValidateIdentity(domain, entry.Key, entry.Provider); err != nil {
		return nil, fmt.Errorf("invalid identity: %w", err)
	}
	if entry.Priority != nil && !identity.ValidPriority(*entry.Priority) {
		return nil, fmt.Errorf("priority %d out of bounds", *entry.Priority)
	}
	if entry.StackLevel != nil && !identity.ValidStackLevel(*entry.StackLevel) {
		return nil, fmt.Errorf("stack_level %d out of bounds", *entry.StackLevel)
	}
	if entry.URI != "" && strings.Contains(entry.URI, "..") {
		return nil, fmt.Errorf("uri %q contains a traversal sequence", entry.URI)
	}
	if entry.Factory != "" {
		if err := l.checker.CheckFactory(domain, entry.Key, entry.Factory); err != nil {
			return nil, fmt.Errorf("factory refused: %w", err)
		}
	}

	if entry.URI != "" && entry.SHA256 != "" {
		if err := l.fetchArtifact(ctx, entry); err != nil {
			l.emitter.Emit("lifecycle-error", map[string]interface{}{
				"domain": entry.Domain, "key": entry.Key, "fields": err.Error(),
			})
			return nil, err
		}
	}

	metadata := map[string]interface{}{"source_label": "remote-manifest"}
	for k, v := range entry.Metadata {
		metadata[k] = v
	}
	if entry.Version != "" {
		metadata["version"] = entry.Version
	}
	if len(entry.Capabilities) > 0 {
		metadata["capabilities"] = entry.Capabilities
	}

	return &registry.Candidate{
		Domain:     domain,
		Key:        entry.Key,
		Provider:   entry.Provider,
		Priority:   entry.Priority,
		StackLevel: entry.StackLevel,
		Factory:    entry.Factory,
		Metadata:   metadata,
		Source:     registry.SourceRemoteManifest,
	}, nil
}

// fetchArtifact downloads and verifies the artifact bytes for entry,
// staging them in the content-addressed cache. A digest mismatch evicts
// the file and returns an *IntegrityError (spec.md §4.3's scenario 5).
func (l *Loader) fetchArtifact(ctx context.Context, entry Entry) error {
	if l.cache == nil {
		return fmt.Errorf("entry %s/%s ships an artifact but no cache is configured", entry.Domain, entry.Key)
	}
	if l.cache.Has(entry.SHA256) {
		return nil
	}
	data, err := l.fetcher.Fetch(ctx, entry.URI)
	if err != nil {
		return fmt.Errorf("fetch artifact %s: %w", entry.URI, err)
	}
	if !VerifyDigest(data, entry.SHA256) {
		l.cache.Evict(entry.SHA256)
		l.emitter.Emit("lifecycle-error", map[string]interface{}{
			"domain": entry.Domain, "key": entry.Key, "fields": "artifact digest mismatch",
		})
		return &IntegrityError{Domain: entry.Domain, Key: entry.Key, Reason: "downloaded bytes do not match manifest sha256"}
	}
	return l.cache.Put(entry.SHA256, data)
}
