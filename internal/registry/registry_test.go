package registry

import (
	"testing"
	"time"

	"github.com/corectl/corectl/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestPrecedenceByPriority(t *testing.T) {
	r := New()
	base := time.Now()
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		Priority: intPtr(10), Source: SourceLocalPkg, RegisteredAt: base,
	}))
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "B",
		Priority: intPtr(20), Source: SourceLocalPkg, RegisteredAt: base,
	}))

	active, ok := r.Resolve(identity.DomainAdapter, "cache", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "B", active.Provider)

	trace := r.Explain(identity.DomainAdapter, "cache")
	for _, e := range trace.Entries {
		if e.Winner {
			assert.Equal(t, "priority", e.Rule)
		}
	}
}

func TestStackLevelTieBreak(t *testing.T) {
	r := New()
	base := time.Now()
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		Priority: intPtr(10), StackLevel: intPtr(5), Source: SourceLocalPkg, RegisteredAt: base,
	}))
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "B",
		Priority: intPtr(10), StackLevel: intPtr(50), Source: SourceLocalPkg, RegisteredAt: base,
	}))

	active, ok := r.Resolve(identity.DomainAdapter, "cache", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "B", active.Provider)

	trace := r.Explain(identity.DomainAdapter, "cache")
	for _, e := range trace.Entries {
		if e.Winner {
			assert.Equal(t, "stack_level", e.Rule)
		}
	}
}

func TestExplicitOverrideDominates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: intPtr(10), Source: SourceLocalPkg,
	}))
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Priority: intPtr(20), Source: SourceLocalPkg,
	}))

	r.SetOverride(identity.DomainAdapter, "cache", "A")

	active, ok := r.Resolve(identity.DomainAdapter, "cache", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "A", active.Provider)
}

func TestRegisterIdempotent(t *testing.T) {
	r := New()
	c := Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Source: SourceLocalPkg}
	require.NoError(t, r.Register(c))
	require.NoError(t, r.Register(c))

	assert.Len(t, r.ListActive(identity.DomainAdapter), 1)
}

func TestBoundaryPriorityAndStackLevel(t *testing.T) {
	r := New()
	err := r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		Priority: intPtr(1001), Source: SourceLocalPkg,
	})
	assert.Error(t, err)

	err = r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		StackLevel: intPtr(101), Source: SourceLocalPkg,
	})
	assert.Error(t, err)
}

func TestBoundaryKeyGrammar(t *testing.T) {
	r := New()
	err := r.Register(Candidate{Domain: identity.DomainAdapter, Key: "..", Provider: "A", Source: SourceLocalPkg})
	assert.Error(t, err)

	err = r.Register(Candidate{Domain: identity.DomainAdapter, Key: "a/b", Provider: "A", Source: SourceLocalPkg})
	assert.Error(t, err)
}

func TestInvalidFactoryRefused(t *testing.T) {
	r := New()
	err := r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "shell", Provider: "A",
		Factory: "os/exec:Command", Source: SourceLocalPkg,
	})
	require.Error(t, err)
	var target *InvalidFactoryError
	assert.ErrorAs(t, err, &target)
}

func TestResolveMissReturnsAbsence(t *testing.T) {
	r := New()
	_, ok := r.Resolve(identity.DomainAdapter, "nonexistent", nil, nil)
	assert.False(t, ok)
}

func TestUnregisterTriggersReResolution(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Source: SourceLocalPkg,
	}))
	removed := r.Unregister(identity.DomainAdapter, "cache", "A", SourceLocalPkg)
	assert.True(t, removed)

	_, ok := r.Resolve(identity.DomainAdapter, "cache", nil, nil)
	assert.False(t, ok)
}

func TestCapabilityScoring(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Source: SourceLocalPkg,
		Metadata: map[string]interface{}{"capabilities": []string{"tls"}},
	}))
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Source: SourceLocalPkg,
		Metadata: map[string]interface{}{"capabilities": []string{"tls", "cluster"}},
	}))

	active, ok := r.Resolve(identity.DomainAdapter, "cache", nil, []string{"tls", "cluster"})
	require.True(t, ok)
	assert.Equal(t, "B", active.Provider)
}

func TestRequiredCapabilityFilter(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: intPtr(100), Source: SourceLocalPkg,
	}))
	require.NoError(t, r.Register(Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Priority: intPtr(10), Source: SourceLocalPkg,
		Metadata: map[string]interface{}{"capabilities": []string{"tls"}},
	}))

	active, ok := r.Resolve(identity.DomainAdapter, "cache", []string{"tls"}, nil)
	require.True(t, ok)
	assert.Equal(t, "B", active.Provider)
}

func TestListShadowed(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: intPtr(20), Source: SourceLocalPkg}))
	require.NoError(t, r.Register(Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Priority: intPtr(10), Source: SourceLocalPkg}))

	shadowed := r.ListShadowed(identity.DomainAdapter)
	require.Len(t, shadowed, 1)
	assert.Equal(t, "B", shadowed[0].Provider)
}

func TestListShadowedIncludesCandidatesEliminatedByOverride(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: intPtr(20), Source: SourceLocalPkg}))
	require.NoError(t, r.Register(Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Priority: intPtr(10), Source: SourceLocalPkg}))

	r.SetOverride(identity.DomainAdapter, "cache", "B")

	shadowed := r.ListShadowed(identity.DomainAdapter)
	require.Len(t, shadowed, 1)
	assert.Equal(t, "A", shadowed[0].Provider)
}

func TestConcurrentResolveNeverTorn(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Source: SourceLocalPkg}))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Register(Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Priority: intPtr(i), Source: SourceManual})
		}
		close(done)
	}()

	for i := 0; i < 100; i++ {
		active, ok := r.Resolve(identity.DomainAdapter, "cache", nil, nil)
		require.True(t, ok)
		assert.Contains(t, []string{"A", "B"}, active.Provider)
	}
	<-done
}
