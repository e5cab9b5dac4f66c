package storage

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Skufu/vetddx/internal/model"
)

// MemoryStore holds the most recent cases in process memory. Older cases are
// evicted once size is reached.
type MemoryStore struct {
	cache *lru.Cache[string, model.CaseRecord]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	cache, err := lru.New[string, model.CaseRecord](size)
	if err != nil {
		return nil, fmt.Errorf("create case cache: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

func (m *MemoryStore) Save(_ context.Context, rec *model.CaseRecord) error {
	prepare(rec)
	m.cache.Add(rec.ID, *rec)
	return nil
}

// Get uses Peek so reads do not change list order.
func (m *MemoryStore) Get(_ context.Context, id string) (model.CaseRecord, error) {
	rec, ok := m.cache.Peek(id)
	if !ok {
		return model.CaseRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) List(_ context.Context, limit int) ([]model.CaseRecord, error) {
	limit = clampLimit(limit)
	keys := m.cache.Keys()
	out := make([]model.CaseRecord, 0, min(limit, len(keys)))
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if rec, ok := m.cache.Peek(keys[i]); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
