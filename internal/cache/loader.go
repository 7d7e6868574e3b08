package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/nikolayk812/bookstore/internal/port"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load once it no longer follows any caller's context.
const DefaultLoadTimeout = 10 * time.Second

// generational stores count removals so a conditional put can tell a stale load apart,
// even when the removal happened in another process.
type generational[V any] interface {
	Generation(ctx context.Context) (uint64, error)
	PutIfGeneration(ctx context.Context, key string, value V, ttl time.Duration, generation uint64) (bool, error)
}

type ReadThroughOption func(*readThroughOptions)

type readThroughOptions struct {
	loadTimeout time.Duration
}

func WithLoadTimeout(timeout time.Duration) ReadThroughOption {
	return func(o *readThroughOptions) {
		if timeout > 0 {
			o.loadTimeout = timeout
		}
	}
}

// ReadThrough serves reads from a cache and fills it from a loader on a miss.
// Concurrent misses for one key share a single load, which runs detached from the
// caller that started it: a cancelled leader does not fail its followers.
//
// ReadThrough must be the invalidation target instead of the bare cache: a load that
// started before ClearByPrefix does not write its result back. When the cache keeps
// its own removal generation (Memory, Redis) the check also covers removals made
// through other ReadThroughs over the same store.
type ReadThrough[V any] struct {
	cache       port.Cache[V]
	gen         generational[V]
	group       singleflight.Group
	epoch       atomic.Uint64
	loadTimeout time.Duration
}

func NewReadThrough[V any](c port.Cache[V], opts ...ReadThroughOption) *ReadThrough[V] {
	o := readThroughOptions{loadTimeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	r := &ReadThrough[V]{
		cache:       c,
		loadTimeout: o.loadTimeout,
	}
	if g, ok := c.(generational[V]); ok {
		r.gen = g
	}

	return r
}

func (r *ReadThrough[V]) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(ctx context.Context) (V, error)) (V, error) {
	var zero V

	value, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("cache get failed, loading from source", "method", "ReadThrough.GetOrLoad", "key", key, "error", err)
	} else if ok {
		return value, nil
	}

	epoch := r.epoch.Load()
	flightKey := key + "#" + strconv.FormatUint(epoch, 10)

	var generation uint64
	cacheable := true
	if r.gen != nil {
		generation, err = r.gen.Generation(ctx)
		if err != nil {
			slog.Warn("cache generation failed, result will not be cached", "method", "ReadThrough.GetOrLoad", "key", key, "error", err)
			cacheable = false
		}
		flightKey += "#" + strconv.FormatUint(generation, 10)
	}

	// An uncacheable miss must not join a flight that will write back.
	if !cacheable {
		flightKey += "#nocache"
	}

	ch := r.group.DoChan(flightKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		loaded, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		if cacheable {
			r.store(loadCtx, key, loaded, ttl, epoch, generation)
		}

		return loaded, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}

		loaded, ok := res.Val.(V)
		if !ok {
			return zero, fmt.Errorf("unexpected loaded type %T", res.Val)
		}

		return loaded, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (r *ReadThrough[V]) store(ctx context.Context, key string, value V, ttl time.Duration, epoch, generation uint64) {
	if r.epoch.Load() != epoch {
		return
	}

	if r.gen != nil {
		stored, err := r.gen.PutIfGeneration(ctx, key, value, ttl, generation)
		if err != nil {
			slog.Warn("cache put failed", "method", "ReadThrough.GetOrLoad", "key", key, "error", err)
		} else if !stored {
			slog.Debug("stale load dropped", "method", "ReadThrough.GetOrLoad", "key", key)
		}
		return
	}

	if err := r.cache.Put(ctx, key, value, ttl); err != nil {
		slog.Warn("cache put failed", "method", "ReadThrough.GetOrLoad", "key", key, "error", err)
	}

	// invalidated between the check and the put
	if r.epoch.Load() != epoch {
		if err := r.cache.Remove(ctx, key); err != nil {
			slog.Warn("cache remove failed", "method", "ReadThrough.GetOrLoad", "key", key, "error", err)
		}
	}
}

func (r *ReadThrough[V]) Remove(ctx context.Context, key string) error {
	r.epoch.Add(1)
	return r.cache.Remove(ctx, key)
}

func (r *ReadThrough[V]) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	r.epoch.Add(1)
	return r.cache.ClearByPrefix(ctx, prefix)
}

func (r *ReadThrough[V]) Size(ctx context.Context) (int, error) {
	return r.cache.Size(ctx)
}
