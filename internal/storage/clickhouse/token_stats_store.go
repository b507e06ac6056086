package clickhouse

import (
	"context"
	"fmt"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
)

// TokenStatsStore implements storage.TokenStatsStore using ClickHouse.
// The aggregation runs server-side over executed_trades; the scored
// output is published into token_stats via a staging table swap.
type TokenStatsStore struct {
	conn *Conn
}

// NewTokenStatsStore creates a new TokenStatsStore.
func NewTokenStatsStore(conn *Conn) *TokenStatsStore {
	return &TokenStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TokenStatsStore = (*TokenStatsStore)(nil)

// QueryStatistics aggregates executed trades into one row per (code,
// issuer) pair with at least domain.MinTradesForStats trades. Whitelist
// fields are left unset; the scoring pass applies them.
func (s *TokenStatsStore) QueryStatistics(ctx context.Context) ([]*domain.TokenStatistics, error) {
	query := `
		SELECT
			iou_code,
			iou_issuer,
			count(*)                                  AS total_trades,
			uniqExact(taker)                          AS unique_takers,
			uniqExactArray(counterparties)            AS unique_counterparties,
			uniqExact(ledger_hash)                    AS ledger_span,
			sum(total_volume_xrp)                     AS total_xrp_volume,
			sum(iou_amount)                           AS total_token_volume,
			avg(exec_price)                           AS avg_price,
			stddevPop(exec_price)                     AS price_stddev,
			avg(total_volume_xrp)                     AS avg_trade_xrp,
			stddevPop(total_volume_xrp)               AS trade_size_stddev,
			min(time)                                 AS first_seen,
			max(time)                                 AS last_seen,
			dateDiff('second', min(time), max(time))  AS seconds_active,
			uniqExact(toDate(time))                   AS days_active
		FROM executed_trades
		WHERE iou_code != ''
		GROUP BY iou_code, iou_issuer
		HAVING count(*) >= ?
		ORDER BY total_xrp_volume DESC
	`

	rows, err := s.conn.Query(ctx, query, uint64(domain.MinTradesForStats))
	if err != nil {
		return nil, fmt.Errorf("query token statistics: %w", err)
	}
	defer rows.Close()

	var stats []*domain.TokenStatistics
	for rows.Next() {
		var st domain.TokenStatistics
		var totalTrades, uniqueTakers, uniqueCounterparties, ledgerSpan, daysActive uint64

		err := rows.Scan(
			&st.TokenCode, &st.TokenIssuer,
			&totalTrades, &uniqueTakers, &uniqueCounterparties, &ledgerSpan,
			&st.TotalXRPVolume, &st.TotalTokenVolume,
			&st.AvgPrice, &st.PriceStddev,
			&st.AvgTradeXRP, &st.TradeSizeStddev,
			&st.FirstSeen, &st.LastSeen,
			&st.SecondsActive, &daysActive,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token statistics row: %w", err)
		}

		st.TotalTrades = int64(totalTrades)
		st.UniqueTakers = int64(uniqueTakers)
		st.UniqueCounterparties = int64(uniqueCounterparties)
		st.LedgerSpan = int64(ledgerSpan)
		st.DaysActive = int64(daysActive)
		st.DeriveRatios()
		stats = append(stats, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token statistics rows: %w", err)
	}

	return stats, nil
}

// ReplaceAll publishes a scoring pass atomically: the records go into
// the truncated staging table, then EXCHANGE TABLES swaps staging and
// live in one DDL operation. Readers see the old pass or the new one,
// never a mix.
func (s *TokenStatsStore) ReplaceAll(ctx context.Context, records []*domain.TokenRiskRecord) error {
	if err := s.conn.Exec(ctx, `TRUNCATE TABLE token_stats_staging`); err != nil {
		return fmt.Errorf("truncate staging table: %w", err)
	}

	if len(records) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `
			INSERT INTO token_stats_staging (
				token_code, token_issuer,
				total_trades, unique_takers, unique_counterparties, ledger_span,
				total_xrp_volume, total_token_volume,
				avg_price, price_stddev, avg_trade_xrp, trade_size_stddev,
				first_seen, last_seen, seconds_active, days_active,
				price_variance_percent, size_variance_percent,
				trades_per_account, xrp_volume_per_account,
				avg_time_gap_seconds, trade_density,
				risk_score, legacy_risk_score, burst_score,
				classification, classification_confidence,
				whitelisted, whitelist_category, updated_at
			)
		`)
		if err != nil {
			return fmt.Errorf("prepare staging batch: %w", err)
		}

		for _, r := range records {
			st := &r.Stats
			err = batch.Append(
				st.TokenCode, st.TokenIssuer,
				uint64(st.TotalTrades), uint64(st.UniqueTakers), uint64(st.UniqueCounterparties), uint64(st.LedgerSpan),
				st.TotalXRPVolume, st.TotalTokenVolume,
				st.AvgPrice, st.PriceStddev, st.AvgTradeXRP, st.TradeSizeStddev,
				st.FirstSeen, st.LastSeen, st.SecondsActive, uint64(st.DaysActive),
				st.PriceVariancePercent, st.SizeVariancePercent,
				st.TradesPerAccount, st.XRPVolumePerAccount,
				st.AvgTimeGapSeconds, st.TradeDensity,
				r.RiskScore, r.LegacyRiskScore, r.BurstScore,
				string(r.Label), r.Confidence,
				boolToUInt8(r.Whitelisted), st.WhitelistCategory, r.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("append to staging batch: %w", err)
			}
		}

		if err := batch.Send(); err != nil {
			return fmt.Errorf("send staging batch: %w", err)
		}
	}

	if err := s.conn.Exec(ctx, `EXCHANGE TABLES token_stats AND token_stats_staging`); err != nil {
		return fmt.Errorf("exchange tables: %w", err)
	}

	return nil
}

// TopByRisk returns up to limit records ordered by risk score descending.
func (s *TokenStatsStore) TopByRisk(ctx context.Context, limit int) ([]*domain.TokenRiskRecord, error) {
	query := `
		SELECT
			token_code, token_issuer,
			total_trades, unique_takers, unique_counterparties, ledger_span,
			total_xrp_volume, total_token_volume,
			avg_price, price_stddev, avg_trade_xrp, trade_size_stddev,
			first_seen, last_seen, seconds_active, days_active,
			price_variance_percent, size_variance_percent,
			trades_per_account, xrp_volume_per_account,
			avg_time_gap_seconds, trade_density,
			risk_score, legacy_risk_score, burst_score,
			classification, classification_confidence,
			whitelisted, whitelist_category, updated_at
		FROM token_stats
		ORDER BY risk_score DESC, total_xrp_volume DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query top by risk: %w", err)
	}
	defer rows.Close()

	var records []*domain.TokenRiskRecord
	for rows.Next() {
		var r domain.TokenRiskRecord
		st := &r.Stats
		var totalTrades, uniqueTakers, uniqueCounterparties, ledgerSpan, daysActive uint64
		var label string
		var whitelisted uint8

		err := rows.Scan(
			&st.TokenCode, &st.TokenIssuer,
			&totalTrades, &uniqueTakers, &uniqueCounterparties, &ledgerSpan,
			&st.TotalXRPVolume, &st.TotalTokenVolume,
			&st.AvgPrice, &st.PriceStddev, &st.AvgTradeXRP, &st.TradeSizeStddev,
			&st.FirstSeen, &st.LastSeen, &st.SecondsActive, &daysActive,
			&st.PriceVariancePercent, &st.SizeVariancePercent,
			&st.TradesPerAccount, &st.XRPVolumePerAccount,
			&st.AvgTimeGapSeconds, &st.TradeDensity,
			&r.RiskScore, &r.LegacyRiskScore, &r.BurstScore,
			&label, &r.Confidence,
			&whitelisted, &st.WhitelistCategory, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan token stats row: %w", err)
		}

		st.TotalTrades = int64(totalTrades)
		st.UniqueTakers = int64(uniqueTakers)
		st.UniqueCounterparties = int64(uniqueCounterparties)
		st.LedgerSpan = int64(ledgerSpan)
		st.DaysActive = int64(daysActive)
		st.IsWhitelisted = whitelisted == 1
		r.Label = domain.Classification(label)
		r.Whitelisted = whitelisted == 1
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token stats rows: %w", err)
	}

	return records, nil
}
