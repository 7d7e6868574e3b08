package cache

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL           = 30 * time.Second
	DefaultSweepInterval = time.Minute
)

type options struct {
	defaultTTL    time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

type Option func(*options)

func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

func WithSweepInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithClock replaces time.Now, tests use it to expire entries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Memory is a process-wide TTL cache. Expired entries are never returned and are
// removed either lazily by Get or by the background sweeper.
type Memory[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	// generation counts removals, see PutIfGeneration
	generation uint64

	defaultTTL time.Duration
	now        func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewMemory[V any](opts ...Option) *Memory[V] {
	o := options{
		defaultTTL:    DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: o.defaultTTL,
		now:        o.now,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go m.sweepLoop(o.sweepInterval)

	return m
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, bool, error) {
	var zero V

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return zero, false, nil
	}

	if m.expired(e) {
		m.mu.Lock()
		// a concurrent Put may have refreshed the key meanwhile
		if current, ok := m.entries[key]; ok && m.expired(current) {
			delete(m.entries, key)
		}
		m.mu.Unlock()

		return zero, false, nil
	}

	return e.value, true, nil
}

func (m *Memory[V]) Put(_ context.Context, key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	m.entries[key] = entry[V]{value: value, expiresAt: m.now().Add(ttl)}
	m.mu.Unlock()

	return nil
}

// Generation changes on every Remove, Clear and ClearByPrefix.
func (m *Memory[V]) Generation(_ context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.generation, nil
}

// PutIfGeneration stores value only if nothing was removed since generation was read.
func (m *Memory[V]) PutIfGeneration(_ context.Context, key string, value V, ttl time.Duration, generation uint64) (bool, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != generation {
		return false, nil
	}

	m.entries[key] = entry[V]{value: value, expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *Memory[V]) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	m.generation++
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	m.generation++
	m.entries = make(map[string]entry[V])
	m.mu.Unlock()

	return nil
}

func (m *Memory[V]) ClearByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++

	removed := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			removed++
		}
	}

	return removed, nil
}

// Size counts stored entries, including expired ones the sweeper has not reached yet.
func (m *Memory[V]) Size(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries), nil
}

// Close stops the sweeper and waits for it to exit. It is safe to call more than once.
func (m *Memory[V]) Close() {
	m.closeOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
}

func (m *Memory[V]) sweepLoop(interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			if removed := m.sweep(); removed > 0 {
				slog.Debug("cache swept", "method", "Memory.sweep", "removed", removed)
			}
		}
	}
}

// sweep collects expired keys under the read lock so foreground reads keep going,
// then deletes them under a short write lock, re-checking expiry.
func (m *Memory[V]) sweep() int {
	m.mu.RLock()
	var expired []string
	for key, e := range m.entries {
		if m.expired(e) {
			expired = append(expired, key)
		}
	}
	m.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, key := range expired {
		if e, ok := m.entries[key]; ok && m.expired(e) {
			delete(m.entries, key)
			removed++
		}
	}

	return removed
}

func (m *Memory[V]) expired(e entry[V]) bool {
	return !m.now().Before(e.expiresAt)
}
