package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/corectl/corectl/pkg/logging"
)

// ArtifactCache stores downloaded artifact bytes under a filename derived
// solely from their sha256 digest (never from untrusted path components,
// per spec.md §4.3), on disk under root. An in-memory LRU indexes which
// digests are currently resident so existence checks and digest-mismatch
// eviction avoid a stat() on every lookup.
type ArtifactCache struct {
	root  string
	index *lru.Cache[string, struct{}]
}

// NewArtifactCache constructs a cache rooted at root, tracking up to
// maxEntries resident digests in its index.
func NewArtifactCache(root string, maxEntries int) (*ArtifactCache, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root %s: %w", root, err)
	}
	index, err := lru.New[string, struct{}](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create cache index: %w", err)
	}
	return &ArtifactCache{root: root, index: index}, nil
}

// pathFor resolves digest to a path inside root, rejecting anything that
// would escape it (the path-traversal guard spec.md §4.3 requires).
func (c *ArtifactCache) pathFor(digest string) (string, error) {
	if digest == "" || strings.ContainsAny(digest, "/\\") || strings.Contains(digest, "..") {
		return "", fmt.Errorf("refusing unsafe cache digest %q", digest)
	}
	candidate := filepath.Join(c.root, digest)
	resolvedRoot, err := filepath.Abs(c.root)
	if err != nil {
		return "", fmt.Errorf("resolve cache root: %w", err)
	}
	resolvedCandidate, err := filepath.Abs(candidate)
	if err != nil {
		return "", fmt.Errorf("resolve cache path: %w", err)
	}
	if !strings.HasPrefix(resolvedCandidate, resolvedRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("cache path %q escapes cache root", candidate)
	}
	return resolvedCandidate, nil
}

// Has reports whether digest is already staged in the cache.
func (c *ArtifactCache) Has(digest string) bool {
	if _, ok := c.index.Get(digest); ok {
		return true
	}
	path, err := c.pathFor(digest)
	if err != nil {
		return false
	}
	if _, err := os.Stat(path); err == nil {
		c.index.Add(digest, struct{}{})
		return true
	}
	return false
}

// Get returns the cached bytes for digest, if present.
func (c *ArtifactCache) Get(digest string) ([]byte, bool) {
	path, err := c.pathFor(digest)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put stages data under digest after verifying it actually hashes to
// digest; on a digest mismatch it returns an error and writes nothing.
func (c *ArtifactCache) Put(digest string, data []byte) error {
	if !VerifyDigest(data, digest) {
		return fmt.Errorf("artifact digest mismatch for %s", digest)
	}
	path, err := c.pathFor(digest)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", digest, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stage artifact %s: %w", digest, err)
	}
	c.index.Add(digest, struct{}{})
	logging.Debug("manifest", "staged artifact digest=%s bytes=%d", digest, len(data))
	return nil
}

// Evict removes digest from the cache entirely (used when a downloaded
// file's real digest did not match the manifest's claimed digest).
func (c *ArtifactCache) Evict(digest string) {
	c.index.Remove(digest)
	path, err := c.pathFor(digest)
	if err != nil {
		return
	}
	os.Remove(path)
}
