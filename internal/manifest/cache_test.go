package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func TestCachePutGetRoundTrip(t *testing.T) {
	cache, err := NewArtifactCache(t.TempDir(), 16)
	require.NoError(t, err)

	data := []byte("artifact bytes")
	digest := digestOf(data)

	require.NoError(t, cache.Put(digest, data))
	assert.True(t, cache.Has(digest))

	got, ok := cache.Get(digest)
	require.True(t, ok)
	assert.Equal(t, data, got)
}

func TestCachePutRejectsDigestMismatch(t *testing.T) {
	cache, err := NewArtifactCache(t.TempDir(), 16)
	require.NoError(t, err)

	err = cache.Put("0000000000000000000000000000000000000000000000000000000000000", []byte("not matching"))
	assert.Error(t, err)
}

func TestCacheRejectsTraversalDigest(t *testing.T) {
	cache, err := NewArtifactCache(t.TempDir(), 16)
	require.NoError(t, err)

	assert.False(t, cache.Has("../../../etc/passwd"))
	err = cache.Put("../../../etc/passwd", []byte("x"))
	assert.Error(t, err)
}

func TestCacheEvict(t *testing.T) {
	root := t.TempDir()
	cache, err := NewArtifactCache(root, 16)
	require.NoError(t, err)

	data := []byte("evict me")
	digest := digestOf(data)
	require.NoError(t, cache.Put(digest, data))
	require.True(t, cache.Has(digest))

	cache.Evict(digest)
	assert.False(t, cache.Has(digest))

	path := filepath.Join(root, digest)
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
