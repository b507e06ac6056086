package clickhouse

import (
	"context"
	"fmt"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// TradeStore implements storage.TradeStore using ClickHouse.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// InsertBulk adds a batch of trade executions. Uniqueness per tx hash is
// the builder's job; re-collection of a ledger is prevented upstream via
// HasLedger.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.TradeExecution) error {
	if len(trades) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO executed_trades (
			time, ledger_index, ledger_hash, tx_hash, tx_type, taker, counterparties,
			posted_gets, posted_pays, exec_xrp,
			iou_code, iou_issuer, iou_amount, exec_price, total_volume_xrp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.Time, uint32(t.LedgerIndex), t.LedgerHash, t.TxHash, t.TxType, t.Taker, t.Counterparties,
			t.PostedGets, t.PostedPays, t.ExecXRP,
			t.IOUCode, t.IOUIssuer, t.IOUAmount, t.ExecPrice, t.TotalVolumeXRP,
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

// HasLedger reports whether any trade has been collected for the ledger.
func (s *TradeStore) HasLedger(ctx context.Context, ledgerHash string) (bool, error) {
	query := `SELECT count(*) FROM executed_trades WHERE ledger_hash = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, ledgerHash).Scan(&count); err != nil {
		return false, fmt.Errorf("check ledger collected: %w", err)
	}
	return count > 0, nil
}

// GetByToken retrieves all trades for a (code, issuer) pair, ordered by time ASC.
func (s *TradeStore) GetByToken(ctx context.Context, code, issuer string) ([]*domain.TradeExecution, error) {
	query := `
		SELECT time, ledger_index, ledger_hash, tx_hash, tx_type, taker, counterparties,
		       posted_gets, posted_pays, exec_xrp,
		       iou_code, iou_issuer, iou_amount, exec_price, total_volume_xrp
		FROM executed_trades
		WHERE iou_code = ? AND iou_issuer = ?
		ORDER BY time ASC
	`

	rows, err := s.conn.Query(ctx, query, code, issuer)
	if err != nil {
		return nil, fmt.Errorf("query trades by token: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrades scans multiple rows.
func scanTrades(rows chRows) ([]*domain.TradeExecution, error) {
	var trades []*domain.TradeExecution

	for rows.Next() {
		var t domain.TradeExecution
		var ledgerIndex uint32

		err := rows.Scan(
			&t.Time, &ledgerIndex, &t.LedgerHash, &t.TxHash, &t.TxType, &t.Taker, &t.Counterparties,
			&t.PostedGets, &t.PostedPays, &t.ExecXRP,
			&t.IOUCode, &t.IOUIssuer, &t.IOUAmount, &t.ExecPrice, &t.TotalVolumeXRP,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade row: %w", err)
		}

		t.LedgerIndex = int64(ledgerIndex)
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade rows: %w", err)
	}

	return trades, nil
}
