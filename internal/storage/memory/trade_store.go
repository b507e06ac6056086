// Package memory provides in-memory store implementations for tests and
// local development. All stores are safe for concurrent use and hand out
// value copies, never internal pointers.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeExecution // keyed by tx_hash
}

// NewTradeStore creates a new in-memory trade store.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TradeExecution),
	}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds multiple trades atomically. Fails the entire batch on
// any duplicate tx hash, existing or intra-batch.
func (s *TradeStore) InsertBulk(_ context.Context, trades []*domain.TradeExecution) error {
	if len(trades) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.TxHash == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[t.TxHash]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TxHash]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TxHash] = struct{}{}
	}

	for _, t := range trades {
		copy := *t
		s.data[t.TxHash] = &copy
	}

	return nil
}

// HasLedger reports whether any trade has been collected for the ledger.
func (s *TradeStore) HasLedger(_ context.Context, ledgerHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.data {
		if t.LedgerHash == ledgerHash {
			return true, nil
		}
	}
	return false, nil
}

// GetByToken retrieves all trades for a (code, issuer) pair, ordered by time ASC.
func (s *TradeStore) GetByToken(_ context.Context, code, issuer string) ([]*domain.TradeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeExecution
	for _, t := range s.data {
		if t.IOUCode == code && t.IOUIssuer == issuer {
			copy := *t
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}

// All returns every stored trade. Used by the in-memory statistics
// aggregation.
func (s *TradeStore) All(_ context.Context) ([]*domain.TradeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeExecution, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Time.Before(result[j].Time)
	})

	return result, nil
}
