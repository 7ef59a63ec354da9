package security

import (
	"testing"

	"github.com/corectl/corectl/internal/identity"
	"github.com/stretchr/testify/assert"
)

func TestDefaultBlockList(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "shell", "os/exec:Command"))
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "ptr", "unsafe:Pointer"))
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "sys", "syscall.Sys:Call"))
	assert.NoError(t, c.CheckFactory(identity.DomainAdapter, "cache", "pkg.adapters.cache:NewRedisAdapter"))
}

func TestInvalidFactoryGrammar(t *testing.T) {
	c := NewChecker(nil, nil)
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "cache", "no-colon-here"))
}

func TestAllowListRejectEverything(t *testing.T) {
	c := NewChecker(nil, []string{})
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "cache", "pkg.adapters.cache:NewRedisAdapter"))
}

func TestAllowListRestricts(t *testing.T) {
	c := NewChecker(nil, []string{"pkg.adapters"})
	assert.NoError(t, c.CheckFactory(identity.DomainAdapter, "cache", "pkg.adapters.cache:NewRedisAdapter"))
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "other", "pkg.other.thing:NewThing"))
}

func TestAllowListStillHonorsBlockList(t *testing.T) {
	c := NewChecker(nil, []string{"syscall"})
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "sys", "syscall:Syscall"))
}

func TestExtraBlocked(t *testing.T) {
	c := NewChecker([]string{"vendor.risky"}, nil)
	assert.Error(t, c.CheckFactory(identity.DomainAdapter, "risky", "vendor.risky.pkg:New"))
}

func TestModulePrefixBoundary(t *testing.T) {
	c := NewChecker(nil, nil)
	// a module that merely starts with a blocked prefix as a string, but is
	// not a sub-path of it, must not be blocked.
	assert.NoError(t, c.CheckFactory(identity.DomainAdapter, "k", "syscallish:New"))
}
