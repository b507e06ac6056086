package postgres

import (
	"context"
	"fmt"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// CollectionStateStore implements storage.CollectionStateStore using Postgres.
type CollectionStateStore struct {
	pool *Pool
}

// NewCollectionStateStore creates a new CollectionStateStore.
func NewCollectionStateStore(pool *Pool) *CollectionStateStore {
	return &CollectionStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CollectionStateStore = (*CollectionStateStore)(nil)

// Append adds a state row. Rows are append-only history.
func (s *CollectionStateStore) Append(ctx context.Context, st *domain.CollectionState) error {
	query := `
		INSERT INTO collection_state (
			run_id, collector_name, last_ledger_hash, last_ledger_index,
			last_update, status, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		st.RunID, st.CollectorName, st.LastLedgerHash, st.LastLedgerIndex,
		st.LastUpdate, string(st.Status), st.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert collection state: %w", err)
	}

	return nil
}

// Latest returns the most recent state row for a collector.
func (s *CollectionStateStore) Latest(ctx context.Context, collectorName string) (*domain.CollectionState, error) {
	query := `
		SELECT run_id, collector_name, last_ledger_hash, last_ledger_index,
		       last_update, status, error_message
		FROM collection_state
		WHERE collector_name = $1
		ORDER BY last_update DESC
		LIMIT 1
	`

	var st domain.CollectionState
	var status string
	err := s.pool.QueryRow(ctx, query, collectorName).Scan(
		&st.RunID, &st.CollectorName, &st.LastLedgerHash, &st.LastLedgerIndex,
		&st.LastUpdate, &status, &st.ErrorMessage,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest collection state: %w", err)
	}

	st.Status = domain.CollectorStatus(status)
	return &st, nil
}
