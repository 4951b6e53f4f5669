package cache

// ScopedKeyer wraps a Keyer with a prefix so entries produced under
// different settings do not collide. Metadata recovered by running
// setup.py depends on the interpreter, so the CLI scopes metadata keys by
// interpreter:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "python3:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// HTTPKey generates a prefixed key for fetched documents.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// MetadataKey generates a prefixed key for archive metadata.
func (k *ScopedKeyer) MetadataKey(digest string) string {
	return k.prefix + k.inner.MetadataKey(digest)
}
