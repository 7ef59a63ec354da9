package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/internal/registry"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Silent = true
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.ActivityDBPath = filepath.Join(dir, "activity.db")
	return cfg
}

func TestNewApplicationWiresRegistryAndManager(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	services := application.Services()
	assert.NotNil(t, services.Registry)
	assert.NotNil(t, services.Manager)
	assert.NotNil(t, services.Orchestrator)
	assert.NotNil(t, services.ManifestLoader)
}

func TestApplicationRunStopsOnContextCancel(t *testing.T) {
	application, err := NewApplication(testConfig(t))
	require.NoError(t, err)

	p10 := 10
	require.NoError(t, application.Services().Registry.Register(registry.Candidate{
		Domain: identity.DomainAdapter, Key: "cache", Provider: "A",
		Priority: &p10, Factory: "pkg:A", Source: registry.SourceLocalPkg,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
