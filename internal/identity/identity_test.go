package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDomain(t *testing.T) {
	assert.True(t, ValidDomain(DomainAdapter))
	assert.True(t, ValidDomain(DomainWorkflow))
	assert.False(t, ValidDomain(Domain("plugin")))
}

func TestValidKey(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"redis", true},
		{"redis-primary", true},
		{"v1.2_beta", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{"a\\b", false},
		{"a..b", false},
		{"valid.name-1", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValidKey(tc.key), "key=%q", tc.key)
	}
}

func TestParseFactory(t *testing.T) {
	mod, sym, err := ParseFactory("pkg.adapters.cache:NewRedisAdapter")
	assert.NoError(t, err)
	assert.Equal(t, "pkg.adapters.cache", mod)
	assert.Equal(t, "NewRedisAdapter", sym)

	_, _, err = ParseFactory("no-colon-here")
	assert.Error(t, err)

	_, _, err = ParseFactory("1bad:Sym")
	assert.Error(t, err)

	_, _, err = ParseFactory("good.module:1bad")
	assert.Error(t, err)
}

func TestBounds(t *testing.T) {
	assert.True(t, ValidPriority(1000))
	assert.True(t, ValidPriority(-1000))
	assert.False(t, ValidPriority(1001))
	assert.False(t, ValidPriority(-1001))

	assert.True(t, ValidStackLevel(100))
	assert.False(t, ValidStackLevel(101))
}

func TestValidateIdentity(t *testing.T) {
	assert.NoError(t, ValidateIdentity(DomainAdapter, "cache", "redis"))
	assert.NoError(t, ValidateIdentity(DomainAdapter, "cache", ""))
	assert.Error(t, ValidateIdentity(Domain("bogus"), "cache", "redis"))
	assert.Error(t, ValidateIdentity(DomainAdapter, "..", "redis"))
	assert.Error(t, ValidateIdentity(DomainAdapter, "cache", "a/b"))
}
