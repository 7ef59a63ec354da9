package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadSettingsDefaults(t *testing.T) {
	os.Unsetenv("STACK_ORDER")
	os.Unsetenv("FACTORY_ALLOWLIST")
	os.Unsetenv("CACHE_DIR")
	os.Unsetenv("TRUSTED_SIGNERS")
	os.Unsetenv("SUPPRESS_EVENTS")

	s := LoadSettingsFromEnv()
	assert.Nil(t, s.FactoryAllowlist)
	assert.Equal(t, defaultCacheDir, s.CacheDir)
	assert.False(t, s.SuppressEvents)
}

func TestFactoryAllowlistEmptyMeansRejectEverything(t *testing.T) {
	t.Setenv("FACTORY_ALLOWLIST", "")
	s := LoadSettingsFromEnv()
	require_NotNil(t, s.FactoryAllowlist)
	assert.Len(t, s.FactoryAllowlist, 0)
}

func require_NotNil(t *testing.T, v interface{}) {
	t.Helper()
	if v == nil {
		t.Fatal("expected non-nil value")
	}
}

func TestFactoryAllowlistRestricts(t *testing.T) {
	t.Setenv("FACTORY_ALLOWLIST", "pkg.adapters, pkg.services")
	s := LoadSettingsFromEnv()
	assert.Equal(t, []string{"pkg.adapters", "pkg.services"}, s.FactoryAllowlist)
}

func TestStackOrderPriority(t *testing.T) {
	t.Setenv("STACK_ORDER", "core,plugins,overrides")
	s := LoadSettingsFromEnv()

	corePriority := s.PriorityForPackage("core")
	pluginsPriority := s.PriorityForPackage("plugins")
	require_NotNil(t, corePriority)
	require_NotNil(t, pluginsPriority)
	assert.Greater(t, *corePriority, *pluginsPriority)

	assert.Nil(t, s.PriorityForPackage("unknown"))
}

func TestSuppressEventsParsing(t *testing.T) {
	t.Setenv("SUPPRESS_EVENTS", "true")
	s := LoadSettingsFromEnv()
	assert.True(t, s.SuppressEvents)
}
