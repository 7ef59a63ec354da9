// Package config loads the environment-variable settings named in
// spec.md §6 (STACK_ORDER, FACTORY_ALLOWLIST, CACHE_DIR, TRUSTED_SIGNERS,
// SUPPRESS_EVENTS). It reads environment variables only; the override-table
// file is parsed by internal/watch and manifests by internal/manifest. It is
// grounded on the env-var + YAML layering
// idiom in giantswarm-muster's internal/config (loader.go/storage.go),
// adapted from that package's MusterConfig shape to this control plane's
// Settings shape.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Settings holds the process-wide configuration recognized from the
// environment. All fields are optional; zero values fall back to sane
// defaults documented alongside each field.
type Settings struct {
	// StackOrder is a comma-separated package-name ordering, leftmost
	// highest priority. PriorityForPackage maps a package name to a
	// priority from it; nothing applies that priority to registered
	// candidates, which carry only the priority their registrant supplies.
	StackOrder []string

	// FactoryAllowlist implements FACTORY_ALLOWLIST semantics: nil means
	// unset ("defaults apply" — block-list only); a non-nil empty slice
	// means the variable was set to the empty string ("reject
	// everything"); a non-empty slice restricts to those prefixes.
	FactoryAllowlist []string

	// CacheDir is the artifact cache root; defaults to the relative
	// directory .corectl/cache if unset.
	CacheDir string

	// TrustedSigners is the raw TRUSTED_SIGNERS value, parsed by
	// manifest.ParseTrustSet ("signer=base64key" pairs, comma-separated).
	TrustedSigners string

	// SuppressEvents mirrors SUPPRESS_EVENTS: events are still emitted
	// and delivered to subscribers, only console echo is withheld.
	SuppressEvents bool

	// ActivityDBPath is where the SQLite activity store lives.
	ActivityDBPath string
}

const defaultCacheDir = ".corectl/cache"
const defaultActivityDBPath = ".corectl/activity.db"

// LoadSettingsFromEnv reads Settings from the process environment,
// applying the documented defaults for anything unset.
func LoadSettingsFromEnv() Settings {
	s := Settings{
		CacheDir:       defaultCacheDir,
		ActivityDBPath: defaultActivityDBPath,
	}

	if v := os.Getenv("STACK_ORDER"); v != "" {
		s.StackOrder = splitNonEmpty(v)
	}

	if v, ok := os.LookupEnv("FACTORY_ALLOWLIST"); ok {
		s.FactoryAllowlist = splitNonEmpty(v)
		if s.FactoryAllowlist == nil {
			// Set-but-empty: "reject everything" must remain a
			// non-nil empty slice, distinct from unset (nil).
			s.FactoryAllowlist = []string{}
		}
	}

	if v := os.Getenv("CACHE_DIR"); v != "" {
		s.CacheDir = v
	}

	s.TrustedSigners = os.Getenv("TRUSTED_SIGNERS")

	if v := os.Getenv("SUPPRESS_EVENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.SuppressEvents = b
		}
	}

	return s
}

func splitNonEmpty(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// PriorityForPackage returns the priority implied by pkg's position in
// StackOrder (leftmost highest), or nil if pkg is not listed.
func (s Settings) PriorityForPackage(pkg string) *int {
	for i, name := range s.StackOrder {
		if name == pkg {
			p := len(s.StackOrder) - i
			return &p
		}
	}
	return nil
}
