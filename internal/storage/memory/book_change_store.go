package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// BookChangeStore is an in-memory implementation of storage.BookChangeStore.
type BookChangeStore struct {
	mu   sync.RWMutex
	data []*domain.BookChange
}

// NewBookChangeStore creates a new in-memory book change store.
func NewBookChangeStore() *BookChangeStore {
	return &BookChangeStore{}
}

// Compile-time interface check.
var _ storage.BookChangeStore = (*BookChangeStore)(nil)

// InsertBulk adds a batch of per-ledger book change summaries.
func (s *BookChangeStore) InsertBulk(_ context.Context, changes []*domain.BookChange) error {
	if len(changes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range changes {
		if c == nil || c.LedgerHash == "" {
			return storage.ErrInvalidInput
		}
		copy := *c
		s.data = append(s.data, &copy)
	}

	return nil
}

// SuspiciousLedgers returns the most recent ledgers with at least one
// suspicious pair, newest first, up to limit.
func (s *BookChangeStore) SuspiciousLedgers(_ context.Context, limit int) ([]domain.LedgerHeader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var headers []domain.LedgerHeader
	for _, c := range s.data {
		if !c.Suspicious {
			continue
		}
		if _, dup := seen[c.LedgerHash]; dup {
			continue
		}
		seen[c.LedgerHash] = struct{}{}
		headers = append(headers, domain.LedgerHeader{
			LedgerIndex: c.LedgerIndex,
			LedgerHash:  c.LedgerHash,
		})
	}

	sort.Slice(headers, func(i, j int) bool {
		return headers[i].LedgerIndex > headers[j].LedgerIndex
	})

	if limit > 0 && len(headers) > limit {
		headers = headers[:limit]
	}
	return headers, nil
}
