// Package security implements the factory block-list/allow-list from
// spec.md §4.3/§4.1 invariant 5: a factory reference whose module is on the
// block-list, or not on a configured allow-list, must never be resolved to
// code. The core never executes a factory string — this package decides
// whether the string is even eligible to be looked up in the per-process
// factory table (see spec.md §9's note on the static-compilation mapping).
package security

import (
	"fmt"
	"strings"

	"github.com/corectl/corectl/internal/identity"
	"github.com/corectl/corectl/pkg/logging"
)

// defaultBlockedPrefixes are module prefixes that must never be resolvable,
// regardless of allow-list configuration: process control, subprocess
// execution, filesystem shell utilities, raw importers, and introspection
// helpers (spec.md §4.3).
var defaultBlockedPrefixes = []string{
	"os/exec",
	"syscall",
	"unsafe",
	"plugin",
	"reflect",
	"runtime/debug",
	"internal/shell",
}

// Checker decides whether a factory reference may ever be resolved to a
// registered constructor. It is configured once at startup from
// FACTORY_ALLOWLIST (see internal/config) and is otherwise immutable.
type Checker struct {
	blocked []string
	// allow, when non-nil, is the exhaustive set of permitted module
	// prefixes. A nil allow means "defaults apply" (block-list only).
	// A non-nil empty allow means "reject everything" (spec.md §6).
	allow []string
}

// NewChecker builds a Checker. extraBlocked is appended to the built-in
// block-list. allowList implements the FACTORY_ALLOWLIST semantics:
// nil -> defaults apply (block-list only, anything else permitted);
// empty slice (non-nil) -> reject everything; non-empty -> only those
// prefixes (still subject to the block-list) are permitted.
func NewChecker(extraBlocked, allowList []string) *Checker {
	blocked := make([]string, 0, len(defaultBlockedPrefixes)+len(extraBlocked))
	blocked = append(blocked, defaultBlockedPrefixes...)
	blocked = append(blocked, extraBlocked...)
	return &Checker{blocked: blocked, allow: allowList}
}

// CheckFactory validates a "<module>:<symbol>" factory reference against
// the grammar (internal/identity) and then the block/allow-list. It
// returns a descriptive error if the factory must be refused and emits an
// audit event either way.
func (c *Checker) CheckFactory(domain identity.Domain, key, factory string) error {
	module, _, err := identity.ParseFactory(factory)
	if err != nil {
		logging.Audit(logging.AuditEvent{
			Action: "factory_check", Outcome: "failure",
			Domain: string(domain), Key: key, Error: err.Error(),
		})
		return fmt.Errorf("invalid factory: %w", err)
	}

	for _, prefix := range c.blocked {
		if hasModulePrefix(module, prefix) {
			err := fmt.Errorf("factory module %q matches blocked prefix %q", module, prefix)
			logging.Audit(logging.AuditEvent{
				Action: "factory_check", Outcome: "failure",
				Domain: string(domain), Key: key, Error: err.Error(),
			})
			return err
		}
	}

	if c.allow != nil {
		allowed := false
		for _, prefix := range c.allow {
			if hasModulePrefix(module, prefix) {
				allowed = true
				break
			}
		}
		if !allowed {
			err := fmt.Errorf("factory module %q is not on the configured allow-list", module)
			logging.Audit(logging.AuditEvent{
				Action: "factory_check", Outcome: "failure",
				Domain: string(domain), Key: key, Error: err.Error(),
			})
			return err
		}
	}

	logging.Audit(logging.AuditEvent{
		Action: "factory_check", Outcome: "success",
		Domain: string(domain), Key: key,
	})
	return nil
}

// hasModulePrefix reports whether module is prefix or a sub-path of prefix
// (module == prefix, or module starts with prefix followed by '.' or '/').
func hasModulePrefix(module, prefix string) bool {
	if module == prefix {
		return true
	}
	return strings.HasPrefix(module, prefix+".") || strings.HasPrefix(module, prefix+"/")
}
