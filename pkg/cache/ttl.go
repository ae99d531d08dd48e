package cache

import (
	"context"
	"time"
)

// FixedTTL wraps a cache so every Set uses ttl instead of the caller's TTL.
type FixedTTL struct {
	Cache
	TTL time.Duration
}

// WithTTL returns c with every write using ttl. A non-positive ttl returns c
// unchanged.
func WithTTL(c Cache, ttl time.Duration) Cache {
	if ttl <= 0 {
		return c
	}
	return FixedTTL{Cache: c, TTL: ttl}
}

// Set stores data under key with the fixed TTL.
func (f FixedTTL) Set(ctx context.Context, key string, data []byte, _ time.Duration) error {
	return f.Cache.Set(ctx, key, data, f.TTL)
}
