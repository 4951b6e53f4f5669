// Package cache provides the byte-oriented cache used for inspection results.
//
// Two implementations are available: [FileCache] stores entries as JSON files
// below a directory and [NullCache] stores nothing. Keys are built by a
// [Keyer] so the same cache directory can hold entries for several
// interpreters or indexes without collisions.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key.
type Cache interface {
	// Get returns the value for key. A miss is reported with ok=false and a
	// nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Default time-to-live values.
const (
	// TTLMetadata applies to recovered archive metadata. Entries are keyed
	// by content digest, so they only go stale when the extraction logic
	// changes.
	TTLMetadata = 30 * 24 * time.Hour

	// TTLIndexPage applies to fetched index pages.
	TTLIndexPage = time.Hour
)

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a fetched document.
	HTTPKey(namespace, key string) string

	// MetadataKey returns the key for metadata recovered from an archive
	// with the given content digest.
	MetadataKey(digest string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// MetadataKey returns "metadata:<digest>".
func (DefaultKeyer) MetadataKey(digest string) string {
	return "metadata:" + digest
}
