// Package app wires the domain packages (identity, security, registry,
// lifecycle, manifest, watch, events, metrics) into a running process. It is
// grounded on giantswarm-muster's internal/app bootstrap pattern: a Config
// describing how the process was invoked, a two-phase NewApplication/Run
// split, and an explicitly-constructed container instead of package-level
// singletons (per spec.md §9's container-not-singleton decision).
package app

import (
	"time"

	"github.com/corectl/corectl/internal/config"
)

// Config describes how this process was invoked: CLI flags and environment,
// merged into the shape the bootstrap sequence needs. It mirrors the
// teacher's app.Config (Debug/Silent/ConfigPath) widened with corectl's own
// knobs (manifest URI, local override path, poll interval).
type Config struct {
	// Debug enables debug-level logging.
	Debug bool
	// Silent suppresses console output entirely (events still flow to
	// subscribers; only the console echo is withheld).
	Silent bool

	// ManifestURI, when non-empty, is polled periodically for remote
	// candidate manifests (spec.md §4.3). Empty disables remote polling.
	ManifestURI string
	// ManifestPollInterval is how often ManifestURI is re-fetched.
	ManifestPollInterval time.Duration

	// OverrideTablePath, when non-empty, is watched for local override
	// table changes (spec.md §4.4). Empty disables the local watcher.
	OverrideTablePath string

	// CacheDir is the artifact cache root.
	CacheDir string
	// ActivityDBPath is where the SQLite activity store lives.
	ActivityDBPath string
	// TrustedSigners is the raw TRUSTED_SIGNERS env value.
	TrustedSigners string
	// FactoryAllowlist restricts which factory module prefixes may be
	// constructed; nil means block-list-only defaults apply.
	FactoryAllowlist []string

	// OrchestratorWorkers is the number of concurrent swap workers.
	OrchestratorWorkers int

	// HTTPAddr, when non-empty, serves /events (websocket) and /metrics
	// (Prometheus) on this address.
	HTTPAddr string
}

// NewConfig applies corectl's defaults on top of zero-valued fields,
// mirroring the teacher's app.NewConfig constructor.
func NewConfig() *Config {
	return &Config{
		ManifestPollInterval: 30 * time.Second,
		OrchestratorWorkers:  4,
	}
}

// ConfigFromSettings applies the environment-derived Settings onto a fresh
// Config, leaving CLI-only knobs (ManifestURI, OverrideTablePath, HTTPAddr,
// Debug) for the caller to set from flags afterward.
func ConfigFromSettings(s config.Settings) *Config {
	cfg := NewConfig()
	cfg.CacheDir = s.CacheDir
	cfg.ActivityDBPath = s.ActivityDBPath
	cfg.TrustedSigners = s.TrustedSigners
	cfg.FactoryAllowlist = s.FactoryAllowlist
	cfg.Silent = s.SuppressEvents
	return cfg
}
