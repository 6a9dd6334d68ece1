package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time // zero means no expiry
}

// MemoryCache implements Cache in process memory. Values are stored JSON
// encoded so callers get the same copy semantics as with Redis.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	now   func() time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryItem), now: time.Now}
}

func (m *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	item := memoryItem{data: data}
	if ttl > 0 {
		item.expireAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest any) error {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok {
		return core.ErrCacheMiss
	}
	if !item.expireAt.IsZero() && m.now().After(item.expireAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return core.ErrCacheMiss
	}
	return json.Unmarshal(item.data, dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

// Close is a no-op.
func (m *MemoryCache) Close() error { return nil }
