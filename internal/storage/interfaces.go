package storage

import (
	"context"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// TradeStore provides access to executed_trades storage.
type TradeStore interface {
	// InsertBulk adds a batch of trade executions. Rows are append-only;
	// the builder guarantees at most one row per tx hash within a scan.
	InsertBulk(ctx context.Context, trades []*domain.TradeExecution) error

	// HasLedger reports whether any trade has been collected for the ledger.
	HasLedger(ctx context.Context, ledgerHash string) (bool, error)

	// GetByToken retrieves all trades for a (code, issuer) pair, ordered by time ASC.
	GetByToken(ctx context.Context, code, issuer string) ([]*domain.TradeExecution, error)
}

// BookChangeStore provides access to book_changes storage.
type BookChangeStore interface {
	// InsertBulk adds a batch of per-ledger book change summaries.
	InsertBulk(ctx context.Context, changes []*domain.BookChange) error

	// SuspiciousLedgers returns the most recent ledgers flagged suspicious,
	// newest first, up to limit.
	SuspiciousLedgers(ctx context.Context, limit int) ([]domain.LedgerHeader, error)
}

// TokenStatsStore provides the per-token aggregate input and the scored
// output of a scoring pass.
type TokenStatsStore interface {
	// QueryStatistics aggregates all stored trades into one TokenStatistics
	// row per (code, issuer) pair with at least domain.MinTradesForStats
	// trades. Whitelist fields are left unset; the orchestrator applies them.
	QueryStatistics(ctx context.Context) ([]*domain.TokenStatistics, error)

	// ReplaceAll atomically replaces the whole token_stats output with the
	// given records. Readers never observe a partially written pass.
	ReplaceAll(ctx context.Context, records []*domain.TokenRiskRecord) error

	// TopByRisk returns up to limit records ordered by risk score descending.
	TopByRisk(ctx context.Context, limit int) ([]*domain.TokenRiskRecord, error)
}

// WhitelistStore provides access to the token whitelist.
type WhitelistStore interface {
	// Insert adds an entry. Returns ErrDuplicateKey if (code, issuer) exists.
	Insert(ctx context.Context, e *domain.WhitelistEntry) error

	// Delete removes an entry. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, code, issuer string) error

	// Get retrieves one entry. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, code, issuer string) (*domain.WhitelistEntry, error)

	// GetAll retrieves all entries ordered by category, then name.
	GetAll(ctx context.Context) ([]*domain.WhitelistEntry, error)
}

// CollectionStateStore records collector progress per batch run.
type CollectionStateStore interface {
	// Append adds a state row. Rows are append-only history.
	Append(ctx context.Context, s *domain.CollectionState) error

	// Latest returns the most recent state row for a collector.
	// Returns ErrNotFound if the collector has never run.
	Latest(ctx context.Context, collectorName string) (*domain.CollectionState, error)
}
