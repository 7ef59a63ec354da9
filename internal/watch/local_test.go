package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/lifecycle"
	"github.com/corectl/corectl/internal/registry"
)

func TestParseOverrideTable(t *testing.T) {
	raw := []byte("adapter:\n  cache: redis\nservice:\n  queue: nats\n")
	table, err := parseOverrideTable(raw)
	require.NoError(t, err)
	assert.Equal(t, "redis", table[identity.DomainAdapter]["cache"])
	assert.Equal(t, "nats", table[identity.DomainService]["queue"])
}

func TestDiffOverrideTables(t *testing.T) {
	previous := OverrideTable{identity.DomainAdapter: {"cache": "redis"}}
	next := OverrideTable{identity.DomainAdapter: {"cache": "memory", "queue": "nats"}}

	changed := diffOverrideTables(previous, next)
	assert.Len(t, changed, 2)
}

func TestLocalWatcherLoadInitialSetsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter:\n  cache: A\n"), 0o644))

	reg := registry.New()
	p10 := 10
	require.NoError(t, reg.Register(registry.Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "A", Priority: &p10, Source: registry.SourceLocalPkg}))
	p20 := 20
	require.NoError(t, reg.Register(registry.Candidate{Domain: identity.DomainAdapter, Key: "cache", Provider: "B", Priority: &p20, Source: registry.SourceLocalPkg}))

	mgr := lifecycle.NewManager(reg, lifecycle.NewFactoryTable())
	orch := NewOrchestrator(mgr, 1)
	w := NewLocalWatcher(path, reg, orch)
	require.NoError(t, w.LoadInitial())

	active, ok := reg.Resolve(identity.DomainAdapter, "cache", nil, nil)
	require.True(t, ok)
	assert.Equal(t, "A", active.Provider)
}

func TestLocalWatcherReloadEnqueuesSwap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapter:\n  cache: A\n"), 0o644))

	reg := registry.New()
	mgr := lifecycle.NewManager(reg, lifecycle.NewFactoryTable())
	orch := NewOrchestrator(mgr, 1)
	w := NewLocalWatcher(path, reg, orch)
	require.NoError(t, w.LoadInitial())

	require.NoError(t, os.WriteFile(path, []byte("adapter:\n  cache: B\n"), 0o644))
	require.NoError(t, w.reload())

	assert.Eventually(t, func() bool { return orch.Len() > 0 }, time.Second, 10*time.Millisecond)
}
