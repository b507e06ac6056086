package memory

import (
	"context"
	"sync"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// CollectionStateStore is an in-memory implementation of
// storage.CollectionStateStore.
type CollectionStateStore struct {
	mu   sync.RWMutex
	data []*domain.CollectionState
}

// NewCollectionStateStore creates a new in-memory collection state store.
func NewCollectionStateStore() *CollectionStateStore {
	return &CollectionStateStore{}
}

// Compile-time interface check.
var _ storage.CollectionStateStore = (*CollectionStateStore)(nil)

// Append adds a state row. Rows are append-only history.
func (s *CollectionStateStore) Append(_ context.Context, st *domain.CollectionState) error {
	if st == nil || st.RunID == "" || st.CollectorName == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *st
	s.data = append(s.data, &copy)
	return nil
}

// Latest returns the most recent state row for a collector, by append
// order.
func (s *CollectionStateStore) Latest(_ context.Context, collectorName string) (*domain.CollectionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.data) - 1; i >= 0; i-- {
		if s.data[i].CollectorName == collectorName {
			copy := *s.data[i]
			return &copy, nil
		}
	}
	return nil, storage.ErrNotFound
}
