package port

import (
	"context"
	"time"
)

type PrefixInvalidator interface {
	// ClearByPrefix removes every entry whose key starts with prefix and returns how many.
	ClearByPrefix(ctx context.Context, prefix string) (int, error)
}

type Cache[V any] interface {
	PrefixInvalidator

	// Get reports false for missing and expired keys.
	Get(ctx context.Context, key string) (V, bool, error)
	// Put stores value for ttl; a non-positive ttl means the cache default.
	Put(ctx context.Context, key string, value V, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	Size(ctx context.Context) (int, error)
}

// ReadThroughCache fills misses from load and is the target of prefix invalidation.
type ReadThroughCache[V any] interface {
	PrefixInvalidator

	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (V, error)) (V, error)
}
