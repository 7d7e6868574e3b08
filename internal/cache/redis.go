package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scanBatch        = 200
	defaultNamespace = "cache"
)

// putIfGeneration sets KEYS[2] only while the generation counter KEYS[1] still equals ARGV[1].
var putIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[1])
if not gen then gen = '0' end
if gen ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Redis implements the cache port on a shared Redis so several processes see one
// invalidation. Keys are stored under "<namespace>:", values as JSON. The removal
// generation lives in Redis too, next to the namespace but outside its key pattern.
type Redis[V any] struct {
	client        redis.UniversalClient
	namespace     string
	generationKey string
	defaultTTL    time.Duration
}

func NewRedis[V any](client redis.UniversalClient, namespace string, defaultTTL time.Duration) *Redis[V] {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	namespace = strings.TrimSuffix(namespace, ":")
	if namespace == "" {
		namespace = defaultNamespace
	}

	return &Redis[V]{
		client:        client,
		namespace:     namespace + ":",
		generationKey: namespace + "#generation",
		defaultTTL:    defaultTTL,
	}
}

// Generation is shared by every process using the same namespace.
func (r *Redis[V]) Generation(ctx context.Context) (uint64, error) {
	gen, err := r.client.Get(ctx, r.generationKey).Uint64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("client.Get: %w", err)
	}

	return gen, nil
}

// PutIfGeneration stores value only if no process removed anything since generation was read.
func (r *Redis[V]) PutIfGeneration(ctx context.Context, key string, value V, ttl time.Duration, generation uint64) (bool, error) {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("json.Marshal: %w", err)
	}

	stored, err := putIfGeneration.Run(ctx, r.client,
		[]string{r.generationKey, r.namespace + key},
		strconv.FormatUint(generation, 10), data, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("putIfGeneration.Run: %w", err)
	}

	return stored == 1, nil
}

func (r *Redis[V]) bumpGeneration(ctx context.Context) error {
	if err := r.client.Incr(ctx, r.generationKey).Err(); err != nil {
		return fmt.Errorf("client.Incr: %w", err)
	}
	return nil
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V

	data, err := r.client.Get(ctx, r.namespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, false, nil
		}
		return zero, false, fmt.Errorf("client.Get: %w", err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("json.Unmarshal: %w", err)
	}

	return value, true, nil
}

func (r *Redis[V]) Put(ctx context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := r.client.Set(ctx, r.namespace+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (r *Redis[V]) Remove(ctx context.Context, key string) error {
	if err := r.bumpGeneration(ctx); err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.namespace+key).Err(); err != nil {
		return fmt.Errorf("client.Del: %w", err)
	}

	return nil
}

// ClearByPrefix bumps the generation before scanning, so a load racing it is never written back.
func (r *Redis[V]) ClearByPrefix(ctx context.Context, prefix string) (int, error) {
	if err := r.bumpGeneration(ctx); err != nil {
		return 0, err
	}

	pattern := escapeGlob(r.namespace+prefix) + "*"

	removed := 0
	err := r.scan(ctx, pattern, func(keys []string) error {
		n, err := r.client.Unlink(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("client.Unlink: %w", err)
		}
		removed += int(n)
		return nil
	})
	if err != nil {
		return removed, err
	}

	return removed, nil
}

func (r *Redis[V]) Clear(ctx context.Context) error {
	_, err := r.ClearByPrefix(ctx, "")
	return err
}

func (r *Redis[V]) Size(ctx context.Context) (int, error) {
	size := 0
	err := r.scan(ctx, escapeGlob(r.namespace)+"*", func(keys []string) error {
		size += len(keys)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return size, nil
}

func (r *Redis[V]) scan(ctx context.Context, pattern string, fn func(keys []string) error) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("client.Scan: %w", err)
		}

		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
