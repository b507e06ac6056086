// Package reporting renders console summaries: the top-risk token table
// after a scoring pass and a disk usage report for the analytics tables.
package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/storage"
	chstore "github.com/realgrapedrop/xrp-watchdog/internal/storage/clickhouse"
)

// RiskTable writes the scored records as a console table, assumed to be
// pre-sorted by risk descending.
func RiskTable(w io.Writer, records []*domain.TokenRiskRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no scored tokens")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Token", "Issuer", "Trades", "Takers", "Vol XRP", "PVar%", "Dens", "Risk", "v1", "Burst", "Class", "Conf")

	for i, r := range records {
		st := &r.Stats
		class := string(r.Label)
		if r.Whitelisted {
			class = "whitelisted/" + st.WhitelistCategory
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			st.TokenCode,
			shortAddress(st.TokenIssuer),
			fmt.Sprintf("%d", st.TotalTrades),
			fmt.Sprintf("%d", st.UniqueTakers),
			fmt.Sprintf("%.0f", st.TotalXRPVolume),
			fmt.Sprintf("%.2f", st.PriceVariancePercent),
			fmt.Sprintf("%.1f", st.TradeDensity),
			fmt.Sprintf("%.2f", r.RiskScore),
			fmt.Sprintf("%.0f", r.LegacyRiskScore),
			fmt.Sprintf("%.0f", r.BurstScore),
			class,
			fmt.Sprintf("%.2f", r.Confidence),
		)
	}

	table.Render()
}

// collectorNames are the collectors tracked in collection_state, in
// pipeline order.
var collectorNames = []string{"book_screener", "trade_collector"}

// CollectorStatus prints the latest recorded state of each collector.
// Collectors with no history yet are listed as never run.
func CollectorStatus(ctx context.Context, w io.Writer, states storage.CollectionStateStore) error {
	table := tablewriter.NewWriter(w)
	table.Header("Collector", "Status", "Last Ledger", "Updated", "Error")

	for _, name := range collectorNames {
		s, err := states.Latest(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			table.Append(name, "never ran", "-", "-", "")
			continue
		}
		if err != nil {
			return fmt.Errorf("latest state for %s: %w", name, err)
		}

		ledger := "-"
		if s.LastLedgerIndex > 0 {
			ledger = fmt.Sprintf("%d", s.LastLedgerIndex)
		}
		table.Append(
			name,
			string(s.Status),
			ledger,
			s.LastUpdate.UTC().Format("2006-01-02 15:04:05"),
			s.ErrorMessage,
		)
	}

	table.Render()
	return nil
}

// TradeTable writes the collected executions for one token as a console
// table, assumed to be pre-sorted by time ascending.
func TradeTable(w io.Writer, trades []*domain.TradeExecution) {
	if len(trades) == 0 {
		fmt.Fprintln(w, "no trades collected")
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("Time", "Ledger", "Tx", "Taker", "XRP", "IOU", "Price")

	for _, t := range trades {
		iou := "-"
		if t.IOUCode != "" {
			iou = fmt.Sprintf("%.4f %s", t.IOUAmount, t.IOUCode)
		}
		price := "-"
		if t.ExecPrice > 0 {
			price = fmt.Sprintf("%.6f", t.ExecPrice)
		}
		table.Append(
			t.Time.UTC().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", t.LedgerIndex),
			shortAddress(t.TxHash),
			shortAddress(t.Taker),
			fmt.Sprintf("%.2f", t.ExecXRP),
			iou,
			price,
		)
	}

	table.Render()
	fmt.Fprintf(w, "%d trades\n", len(trades))
}

// StorageRow is one table's disk usage.
type StorageRow struct {
	Table             string
	Rows              uint64
	CompressedBytes   uint64
	UncompressedBytes uint64
}

// StorageReport prints per-table row counts and disk usage for the
// active parts of the analytics database.
func StorageReport(ctx context.Context, w io.Writer, conn *chstore.Conn) error {
	query := `
		SELECT table,
		       sum(rows)                   AS rows,
		       sum(data_compressed_bytes)  AS compressed,
		       sum(data_uncompressed_bytes) AS uncompressed
		FROM system.parts
		WHERE active AND database = currentDatabase()
		GROUP BY table
		ORDER BY compressed DESC
	`

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query system.parts: %w", err)
	}
	defer rows.Close()

	table := tablewriter.NewWriter(w)
	table.Header("Table", "Rows", "Compressed", "Uncompressed", "Ratio")

	var found bool
	for rows.Next() {
		var r StorageRow
		if err := rows.Scan(&r.Table, &r.Rows, &r.CompressedBytes, &r.UncompressedBytes); err != nil {
			return fmt.Errorf("scan storage row: %w", err)
		}
		ratio := "-"
		if r.CompressedBytes > 0 {
			ratio = fmt.Sprintf("%.1fx", float64(r.UncompressedBytes)/float64(r.CompressedBytes))
		}
		table.Append(
			r.Table,
			fmt.Sprintf("%d", r.Rows),
			formatBytes(r.CompressedBytes),
			formatBytes(r.UncompressedBytes),
			ratio,
		)
		found = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate storage rows: %w", err)
	}

	if !found {
		fmt.Fprintln(w, "no data stored yet")
		return nil
	}

	table.Render()
	return collectionSummary(ctx, w, conn)
}

// collectionSummary appends the observed collection period and the
// average daily trade growth.
func collectionSummary(ctx context.Context, w io.Writer, conn *chstore.Conn) error {
	query := `
		SELECT count(*), min(time), max(time)
		FROM executed_trades
	`

	var trades uint64
	var first, last time.Time
	if err := conn.QueryRow(ctx, query).Scan(&trades, &first, &last); err != nil {
		return fmt.Errorf("query collection period: %w", err)
	}
	if trades == 0 {
		return nil
	}

	days := last.Sub(first).Hours() / 24
	if days < 1 {
		days = 1
	}
	fmt.Fprintf(w, "\ncollection period: %s to %s (%.1f days)\n",
		first.UTC().Format("2006-01-02 15:04"), last.UTC().Format("2006-01-02 15:04"), days)
	fmt.Fprintf(w, "trade growth: %.0f trades/day over %d trades\n", float64(trades)/days, trades)
	return nil
}

// shortAddress truncates a ledger address for display.
func shortAddress(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:8] + ".." + addr[len(addr)-4:]
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
