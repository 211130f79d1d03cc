package audit

import (
	"context"
	"sort"
	"sync"

	"github.com/abbakari/works/internal/core/id"
)

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []Entry
	// AppendFunc, when set, replaces the default append.
	AppendFunc func(ctx context.Context, e *Entry) error
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append implements Repository.
func (m *MemoryRepository) Append(ctx context.Context, e *Entry) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

// ListByEntity implements Repository.
func (m *MemoryRepository) ListByEntity(_ context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	// insertion order breaks ties between equal timestamps
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// All returns a copy of every stored entry in insertion order.
func (m *MemoryRepository) All() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Truncate drops entries after the first n. Used to simulate rollback.
func (m *MemoryRepository) Truncate(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < len(m.entries) {
		m.entries = m.entries[:n]
	}
}

var _ Repository = (*MemoryRepository)(nil)
