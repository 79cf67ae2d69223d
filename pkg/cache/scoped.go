package cache

// ScopedKeyer wraps a Keyer with a prefix that namespaces its keys.
// The serve command uses it to keep this application's entries apart
// from anything else living in a shared Redis instance.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "schematiq:")
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

// RecordsKey generates a prefixed record-table hash key.
func (k *ScopedKeyer) RecordsKey(data []byte) string {
	return k.prefix + k.inner.RecordsKey(data)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(recordsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(recordsHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
