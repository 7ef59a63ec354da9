package registry

import (
	"time"

	"github.com/google/uuid"

	"github.com/corectl/corectl/internal/identity"
)

// Source identifies where a Candidate was discovered.
type Source string

const (
	SourceLocalPkg       Source = "LOCAL_PKG"
	SourceRemoteManifest Source = "REMOTE_MANIFEST"
	SourceEntryPoint     Source = "ENTRY_POINT"
	SourceManual         Source = "MANUAL"
)

// HealthFunc is the optional readiness probe a Candidate may carry. Nothing
// in this module calls it: internal/lifecycle probes the constructed
// payload's HealthChecker instead.
type HealthFunc func() bool

// Candidate is an immutable descriptor of one possible implementation for a
// single (domain,key). Candidates are never mutated in place; re-registration
// under the same identity replaces the stored value.
type Candidate struct {
	// ID is a stable key assigned at registration and kept across
	// re-registration under the same identity. It appears in JSON
	// responses that carry the stored Candidate; log lines, cache entries
	// and activity records do not include it. It does not participate in
	// identity equality or precedence.
	ID uuid.UUID

	Domain   identity.Domain
	Key      string
	Provider string

	// Priority is supplied by the registrant; higher wins. Absent (nil) is
	// treated as lowest. It is not derived from STACK_ORDER at registration.
	Priority *int
	// StackLevel is a candidate-declared z-index, a tie-breaker within a
	// single package. Absent (nil) is treated as lowest.
	StackLevel *int

	// Factory is a "<module>:<symbol>" reference. The registry never
	// resolves it to code itself; callers that construct instances
	// (internal/lifecycle) do so only after internal/security clears it.
	Factory string

	// Metadata is an opaque mapping: version, capabilities, owner,
	// signature info, source label. Capabilities live under the
	// "capabilities" key as a []string.
	Metadata map[string]interface{}

	Source Source

	// RegisteredAt is a monotonic registration timestamp, used only for
	// the last-registered-wins tie-break.
	RegisteredAt time.Time

	// Health is never serialized: a func value cannot cross the admin API.
	// See HealthFunc: nothing in this module invokes it.
	Health HealthFunc `json:"-"`
}

// Capabilities extracts the capability tag set from Metadata, if present.
func (c *Candidate) Capabilities() map[string]struct{} {
	caps := make(map[string]struct{})
	raw, ok := c.Metadata["capabilities"]
	if !ok {
		return caps
	}
	switch v := raw.(type) {
	case []string:
		for _, tag := range v {
			caps[tag] = struct{}{}
		}
	case map[string]struct{}:
		for tag := range v {
			caps[tag] = struct{}{}
		}
	}
	return caps
}

func (c *Candidate) priorityOrLowest() int {
	if c.Priority == nil {
		return identity.MinPriority - 1
	}
	return *c.Priority
}

func (c *Candidate) stackLevelOrLowest() int {
	if c.StackLevel == nil {
		return identity.MinStackLevel - 1
	}
	return *c.StackLevel
}

// identityKey uniquely identifies a stored candidate: re-registration under
// the same (domain,key,provider,source) replaces rather than adds.
type identityKey struct {
	domain   identity.Domain
	key      string
	provider string
	source   Source
}

func (c *Candidate) identityKey() identityKey {
	return identityKey{domain: c.Domain, key: c.Key, provider: c.Provider, source: c.Source}
}

// IdentityKeyEquals reports whether c and other name the same candidate
// identity (domain, key, provider, source) — used by swap to decide
// whether re-resolution actually changed anything.
func (c *Candidate) IdentityKeyEquals(other Candidate) bool {
	return c.identityKey() == other.identityKey()
}
