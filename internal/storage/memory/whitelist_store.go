package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// WhitelistStore is an in-memory implementation of storage.WhitelistStore.
type WhitelistStore struct {
	mu   sync.RWMutex
	data map[[2]string]*domain.WhitelistEntry // keyed by (code, issuer)
}

// NewWhitelistStore creates a new in-memory whitelist store.
func NewWhitelistStore() *WhitelistStore {
	return &WhitelistStore{
		data: make(map[[2]string]*domain.WhitelistEntry),
	}
}

// Compile-time interface check.
var _ storage.WhitelistStore = (*WhitelistStore)(nil)

// Insert adds an entry. Returns ErrDuplicateKey if (code, issuer) exists.
func (s *WhitelistStore) Insert(_ context.Context, e *domain.WhitelistEntry) error {
	if e == nil || e.TokenCode == "" || e.TokenIssuer == "" || !domain.ValidCategory(e.Category) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{e.TokenCode, e.TokenIssuer}
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *e
	s.data[key] = &copy
	return nil
}

// Delete removes an entry. Returns ErrNotFound if it does not exist.
func (s *WhitelistStore) Delete(_ context.Context, code, issuer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]string{code, issuer}
	if _, exists := s.data[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.data, key)
	return nil
}

// Get retrieves one entry. Returns ErrNotFound if it does not exist.
func (s *WhitelistStore) Get(_ context.Context, code, issuer string) (*domain.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[[2]string{code, issuer}]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *e
	return &copy, nil
}

// GetAll retrieves all entries ordered by category, then name.
func (s *WhitelistStore) GetAll(_ context.Context) ([]*domain.WhitelistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WhitelistEntry, 0, len(s.data))
	for _, e := range s.data {
		copy := *e
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Category != result[j].Category {
			return result[i].Category < result[j].Category
		}
		return result[i].TokenName < result[j].TokenName
	})

	return result, nil
}
