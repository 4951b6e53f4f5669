package metadata

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/pkgmirror/pkg/archive"
	"github.com/matzehuels/pkgmirror/pkg/cache"
	"github.com/matzehuels/pkgmirror/pkg/observability"
)

// Inspector recovers metadata from an archive path.
type Inspector interface {
	ExtractNameVersion(ctx context.Context, path string) (Metadata, error)
}

// CachedExtractor remembers recovered metadata by archive content digest,
// so an archive that was inspected once never runs setup.py again. Only
// found pairs are cached; absent results are retried on the next call.
type CachedExtractor struct {
	inner Inspector
	cache cache.Cache
	keyer cache.Keyer
}

// NewCachedExtractor wraps inner with c. A nil keyer uses the default.
func NewCachedExtractor(inner Inspector, c cache.Cache, keyer cache.Keyer) *CachedExtractor {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	return &CachedExtractor{inner: inner, cache: c, keyer: keyer}
}

// ExtractNameVersion returns the cached pair for the archive's content, or
// delegates to the wrapped inspector and stores a found result.
func (c *CachedExtractor) ExtractNameVersion(ctx context.Context, path string) (Metadata, error) {
	if !archive.Supported(path) {
		return Metadata{}, nil
	}
	digest, err := cache.HashFile(path)
	if err != nil {
		return c.inner.ExtractNameVersion(ctx, path)
	}
	key := c.keyer.MetadataKey(digest)
	hooks := observability.Cache()

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var md Metadata
		if json.Unmarshal(data, &md) == nil && md.Found() {
			hooks.OnCacheHit(ctx, "metadata")
			return md, nil
		}
	}
	hooks.OnCacheMiss(ctx, "metadata")

	md, err := c.inner.ExtractNameVersion(ctx, path)
	if err != nil || !md.Found() {
		return md, err
	}
	if data, err := json.Marshal(md); err == nil {
		if c.cache.Set(ctx, key, data, cache.TTLMetadata) == nil {
			hooks.OnCacheSet(ctx, "metadata", len(data))
		}
	}
	return md, nil
}

var (
	_ Inspector = (*Extractor)(nil)
	_ Inspector = (*CachedExtractor)(nil)
)
