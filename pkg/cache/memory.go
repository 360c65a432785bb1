package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
	seq       uint64
}

func (i item[V]) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && now.After(i.expiresAt)
}

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	defaultTTL time.Duration
	maxEntries int
}

// WithDefaultTTL sets the TTL used when Set gets zero. Defaults to never
// expiring, which suits metadata that lives as long as the process.
func WithDefaultTTL(d time.Duration) MemoryOption {
	return func(c *memoryConfig) { c.defaultTTL = d }
}

// WithMaxEntries bounds the cache; the oldest entry is dropped first.
func WithMaxEntries(n int) MemoryOption {
	return func(c *memoryConfig) { c.maxEntries = n }
}

// Memory is a process-local cache. Expired entries are dropped lazily.
type Memory[V any] struct {
	mu     sync.RWMutex
	items  map[string]item[V]
	cfg    memoryConfig
	seq    uint64
	closed bool
}

// NewMemory creates an empty in-memory cache.
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	cfg := memoryConfig{defaultTTL: -1}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory[V]{items: make(map[string]item[V]), cfg: cfg}
}

func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	closed := m.closed
	m.mu.RUnlock()

	var zero V
	if closed {
		return zero, ErrClosed
	}
	if !ok || it.expired(time.Now()) {
		return zero, ErrNotFound
	}
	return it.value, nil
}

func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.cfg.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if _, exists := m.items[key]; !exists && m.cfg.maxEntries > 0 && len(m.items) >= m.cfg.maxEntries {
		m.evict()
	}

	m.seq++
	m.items[key] = item[V]{value: value, expiresAt: expiresAt, seq: m.seq}
	return nil
}

// evict drops expired entries, or the oldest one when none expired.
// Callers hold the write lock.
func (m *Memory[V]) evict() {
	now := time.Now()
	var (
		oldestKey string
		oldestSeq uint64
		dropped   bool
	)
	for k, it := range m.items {
		if it.expired(now) {
			delete(m.items, k)
			dropped = true
			continue
		}
		if oldestKey == "" || it.seq < oldestSeq {
			oldestKey, oldestSeq = k, it.seq
		}
	}
	if !dropped && oldestKey != "" {
		delete(m.items, oldestKey)
	}
}

func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	clear(m.items)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Close releases the entries. Further calls fail with ErrClosed.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.items = nil
	return nil
}

var _ Cache[any] = (*Memory[any])(nil)
