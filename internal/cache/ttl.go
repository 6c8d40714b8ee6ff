package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Backend is a byte-oriented key/value store with per-entry expiry. A miss
// (absent or expired key) returns ok=false with a nil error.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryBackend is a process-local Backend. Expired entries are dropped
// lazily on read.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryBackend creates an empty in-memory cache backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]memoryEntry)}
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expires) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expires.Equal(entry.expires) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// RedisBackend is a Backend over a shared Redis instance, for deployments
// running more than one screening node.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps client as a cache backend.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return val, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// TTLCache adds read-through semantics on top of a Backend.
type TTLCache struct {
	backend Backend
}

// New creates a TTLCache over backend.
func New(backend Backend) *TTLCache {
	return &TTLCache{backend: backend}
}

// GetOrRefresh returns the cached value for key, calling fetch and storing
// its result on a miss. A backend read failure falls through to fetch; a
// backend write failure is ignored so callers still get fresh data.
func (c *TTLCache) GetOrRefresh(ctx context.Context, key string, ttl time.Duration, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if val, ok, err := c.backend.Get(ctx, key); err == nil && ok {
		return val, nil
	}
	val, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	_ = c.backend.Set(ctx, key, val, ttl)
	return val, nil
}
