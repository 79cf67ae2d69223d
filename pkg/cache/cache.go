// Package cache provides pluggable byte caching for expensive
// pipeline stages: computed layouts keyed by their full input, and
// rendered artifacts keyed by the layout they were drawn from.
//
// Backends share one small interface so the CLI (file cache), the
// server (Redis), and tests (null cache) are interchangeable.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface all backends implement.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found;
	// expired or corrupt entries read as misses, not errors.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts captures everything besides the records that changes a
// computed layout. Two inputs with equal record hashes and equal opts
// produce byte-identical layouts, so they may share a cache entry.
type LayoutKeyOpts struct {
	Algorithm    string  `json:"algorithm"`
	Direction    string  `json:"direction"`
	ExtraSpacing float64 `json:"extra_spacing"`
	LinksHidden  bool    `json:"links_hidden"`
}

// ArtifactKeyOpts captures the rendering parameters applied on top of
// a finished layout.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Curve  string  `json:"curve"`
	Zoom   float64 `json:"zoom"`
}

// Keyer generates cache keys. Implementations must be deterministic:
// the same inputs always yield the same key.
type Keyer interface {
	// RecordsKey hashes a serialized record table.
	RecordsKey(data []byte) string

	// LayoutKey keys a computed layout by its record hash and options.
	LayoutKey(recordsHash string, opts LayoutKeyOpts) string

	// ArtifactKey keys a rendered artifact by its layout hash and options.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard SHA-256 based key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// RecordsKey hashes the serialized record table.
func (k *DefaultKeyer) RecordsKey(data []byte) string {
	return "records:" + Hash(data)
}

// LayoutKey generates a key for layout caching.
func (k *DefaultKeyer) LayoutKey(recordsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", recordsHash, opts)
}

// ArtifactKey generates a key for artifact caching.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
