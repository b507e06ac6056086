package clickhouse

import (
	"context"
	"fmt"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// BookChangeStore implements storage.BookChangeStore using ClickHouse.
type BookChangeStore struct {
	conn *Conn
}

// NewBookChangeStore creates a new BookChangeStore.
func NewBookChangeStore(conn *Conn) *BookChangeStore {
	return &BookChangeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.BookChangeStore = (*BookChangeStore)(nil)

// InsertBulk adds a batch of per-ledger book change summaries.
func (s *BookChangeStore) InsertBulk(ctx context.Context, changes []*domain.BookChange) error {
	if len(changes) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO book_changes (
			time, ledger_index, ledger_hash, currency_pair, currency_code, issuer,
			open, high, low, close,
			volume_xrp, volume_token, price_variance, suspicious
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, c := range changes {
		err = batch.Append(
			c.Time, uint32(c.LedgerIndex), c.LedgerHash, c.CurrencyPair, c.CurrencyCode, c.Issuer,
			c.Open, c.High, c.Low, c.Close,
			c.VolumeXRP, c.VolumeToken, c.PriceVariance, boolToUInt8(c.Suspicious),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// SuspiciousLedgers returns the most recently screened ledgers with at
// least one suspicious pair, newest first, up to limit.
func (s *BookChangeStore) SuspiciousLedgers(ctx context.Context, limit int) ([]domain.LedgerHeader, error) {
	query := `
		SELECT ledger_index, ledger_hash
		FROM book_changes
		WHERE suspicious = 1
		GROUP BY ledger_index, ledger_hash
		ORDER BY ledger_index DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query suspicious ledgers: %w", err)
	}
	defer rows.Close()

	var headers []domain.LedgerHeader
	for rows.Next() {
		var h domain.LedgerHeader
		var ledgerIndex uint32
		if err := rows.Scan(&ledgerIndex, &h.LedgerHash); err != nil {
			return nil, fmt.Errorf("scan suspicious ledger row: %w", err)
		}
		h.LedgerIndex = int64(ledgerIndex)
		headers = append(headers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate suspicious ledger rows: %w", err)
	}

	return headers, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
