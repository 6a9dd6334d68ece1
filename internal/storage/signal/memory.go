package signal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/sentinel/internal/core"
)

// MemoryStore is an in-memory signal store. Once it holds more than maxSize
// signals the oldest closed ones are dropped; open signals are never evicted.
type MemoryStore struct {
	signals map[int64]core.Signal
	maxSize int
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with max capacity.
func NewMemoryStore(maxSize int) *MemoryStore {
	return &MemoryStore{
		signals: make(map[int64]core.Signal),
		maxSize: maxSize,
	}
}

// Save upserts a signal by ID.
func (m *MemoryStore) Save(ctx context.Context, sig core.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.signals[sig.ID] = sig
	if m.maxSize > 0 && len(m.signals) > m.maxSize {
		m.evict(len(m.signals) - m.maxSize)
	}
	return nil
}

// evict must be called with mu held.
func (m *MemoryStore) evict(n int) {
	ids := m.sortedIDs()
	for _, id := range ids {
		if n == 0 {
			return
		}
		if !m.signals[id].IsActive() {
			delete(m.signals, id)
			n--
		}
	}
}

// GetByID retrieves a signal by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sig, ok := m.signals[id]
	if !ok {
		return nil, core.ErrSignalNotFound
	}
	return &sig, nil
}

// List returns signals matching the filter, newest first.
func (m *MemoryStore) List(ctx context.Context, filter ListFilter) ([]core.Signal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.sortedIDs()
	result := make([]core.Signal, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		if sig := m.signals[ids[i]]; filter.Matches(sig) {
			result = append(result, sig)
		}
	}

	// Apply offset and limit
	if filter.Offset >= len(result) {
		return []core.Signal{}, nil
	}
	if filter.Offset > 0 {
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count returns the count of matching signals.
func (m *MemoryStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, sig := range m.signals {
		if filter.Matches(sig) {
			count++
		}
	}
	return count, nil
}

// DeleteClosedBefore removes closed signals that closed before cutoff.
func (m *MemoryStore) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sig := range m.signals {
		if !sig.IsActive() && sig.ClosedAt != nil && sig.ClosedAt.Before(cutoff) {
			delete(m.signals, id)
			removed++
		}
	}
	return removed, nil
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.signals))
	for id := range m.signals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
