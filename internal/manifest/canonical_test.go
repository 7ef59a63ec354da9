package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeDeterministic(t *testing.T) {
	doc := Document{
		Source: "test",
		Entries: []Entry{
			{Domain: "adapter", Key: "cache", Provider: "redis", SHA256: "abc"},
		},
	}
	a, err := Canonicalize(doc)
	require.NoError(t, err)
	b, err := Canonicalize(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalizeExcludesSignature(t *testing.T) {
	withSig := Document{Source: "test", Signature: "deadbeef"}
	withoutSig := Document{Source: "test"}

	a, err := Canonicalize(withSig)
	require.NoError(t, err)
	b, err := Canonicalize(withoutSig)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalizeRoundTrip(t *testing.T) {
	doc := Document{Source: "test", Entries: []Entry{{Domain: "adapter", Key: "cache"}}}
	canon, err := Canonicalize(doc)
	require.NoError(t, err)

	parsed, err := ParseDocument(canon)
	require.NoError(t, err)
	reCanon, err := Canonicalize(parsed)
	require.NoError(t, err)
	assert.Equal(t, canon, reCanon)
}

func TestCanonicalizeNoTrailingWhitespace(t *testing.T) {
	doc := Document{Source: "test"}
	canon, err := Canonicalize(doc)
	require.NoError(t, err)
	assert.NotEqual(t, byte('\n'), canon[len(canon)-1])
}
