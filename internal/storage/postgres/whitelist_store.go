package postgres

import (
	"context"
	"fmt"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// WhitelistStore implements storage.WhitelistStore using Postgres.
type WhitelistStore struct {
	pool *Pool
}

// NewWhitelistStore creates a new WhitelistStore.
func NewWhitelistStore(pool *Pool) *WhitelistStore {
	return &WhitelistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WhitelistStore = (*WhitelistStore)(nil)

// Insert adds an entry. Returns ErrDuplicateKey if (code, issuer) exists,
// ErrInvalidInput on an unknown category.
func (s *WhitelistStore) Insert(ctx context.Context, e *domain.WhitelistEntry) error {
	if !domain.ValidCategory(e.Category) {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_whitelist (
			token_code, token_issuer, token_name, category, reason, added_date, added_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		e.TokenCode, e.TokenIssuer, e.TokenName, string(e.Category), e.Reason, e.AddedDate, e.AddedBy,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert whitelist entry: %w", err)
	}

	return nil
}

// Delete removes an entry. Returns ErrNotFound if it does not exist.
func (s *WhitelistStore) Delete(ctx context.Context, code, issuer string) error {
	query := `DELETE FROM token_whitelist WHERE token_code = $1 AND token_issuer = $2`

	tag, err := s.pool.Exec(ctx, query, code, issuer)
	if err != nil {
		return fmt.Errorf("delete whitelist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Get retrieves one entry. Returns ErrNotFound if it does not exist.
func (s *WhitelistStore) Get(ctx context.Context, code, issuer string) (*domain.WhitelistEntry, error) {
	query := `
		SELECT token_code, token_issuer, token_name, category, reason, added_date, added_by
		FROM token_whitelist
		WHERE token_code = $1 AND token_issuer = $2
	`

	var e domain.WhitelistEntry
	var category string
	err := s.pool.QueryRow(ctx, query, code, issuer).Scan(
		&e.TokenCode, &e.TokenIssuer, &e.TokenName, &category, &e.Reason, &e.AddedDate, &e.AddedBy,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get whitelist entry: %w", err)
	}

	e.Category = domain.WhitelistCategory(category)
	return &e, nil
}

// GetAll retrieves all entries ordered by category, then name.
func (s *WhitelistStore) GetAll(ctx context.Context) ([]*domain.WhitelistEntry, error) {
	query := `
		SELECT token_code, token_issuer, token_name, category, reason, added_date, added_by
		FROM token_whitelist
		ORDER BY category ASC, token_name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query whitelist entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WhitelistEntry
	for rows.Next() {
		var e domain.WhitelistEntry
		var category string
		err := rows.Scan(
			&e.TokenCode, &e.TokenIssuer, &e.TokenName, &category, &e.Reason, &e.AddedDate, &e.AddedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan whitelist row: %w", err)
		}
		e.Category = domain.WhitelistCategory(category)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate whitelist rows: %w", err)
	}

	return entries, nil
}
