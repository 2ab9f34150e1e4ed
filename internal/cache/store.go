// Package cache provides a narrow TTL key/value store with explicit
// invalidation, so the backing (in-process map or shared Redis) is
// swappable without touching the callers.
package cache

import (
	"context"
	"time"
)

// Store is the contract the integrity guard and the ETag layer rely on.
// GetOrCompute returns the cached value for key, or runs compute and caches
// the result for ttl. Concurrent callers for the same expired key may each
// compute once; recomputation is cheap and idempotent, so bounded duplicate
// work is preferred over serializing callers.
type Store interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error)
	Invalidate(ctx context.Context, keys ...string) error
}
