package cache

import (
	"context"
	"time"
)

// NullCache discards everything. It stands in for a real backend when
// the user passes --no-cache, when the serve config names backend
// "none", and in tests that want layout recomputation on every call.
type NullCache struct{}

// NewNullCache returns the discard-everything cache.
func NewNullCache() Cache { return &NullCache{} }

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set drops the value.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op.
func (c *NullCache) Delete(ctx context.Context, key string) error { return nil }

// Close is a no-op.
func (c *NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
