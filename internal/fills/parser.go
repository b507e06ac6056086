// Package fills reads settled-offer executions from the external fill
// reporting tool, one TSV row per execution.
package fills

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// closeTimeLayout matches rippled's close_time_human, fraction stripped.
const closeTimeLayout = "2006-Jan-02 15:04:05"

// expected TSV header columns, in order.
var headerColumns = []string{
	"ledger_index", "close_time", "tx_hash", "tx_type",
	"taker", "posted_gets", "posted_pays", "exec_xrp", "counterparties",
}

// Parse reads the fill tool's TSV output. Rows keep their on-wire order;
// deduplication and counterparty filtering belong to the trade builder.
// Malformed numeric fields degrade to zero values rather than failing the
// whole report.
func Parse(r io.Reader) ([]*domain.Fill, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = len(headerColumns)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, want := range headerColumns {
		if header[i] != want {
			return nil, fmt.Errorf("unexpected column %d: got %q, want %q", i, header[i], want)
		}
	}

	var out []*domain.Fill
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		out = append(out, parseRow(row))
	}
	return out, nil
}

func parseRow(row []string) *domain.Fill {
	ledgerIndex, _ := strconv.ParseInt(row[0], 10, 64)

	execXRP := 0.0
	if row[7] != "" {
		execXRP, _ = strconv.ParseFloat(row[7], 64)
	}

	var counterparties []string
	if row[8] != "" {
		counterparties = strings.Split(row[8], ",")
	}

	return &domain.Fill{
		LedgerIndex:    ledgerIndex,
		CloseTime:      parseCloseTime(row[1]),
		TxHash:         row[2],
		TxType:         row[3],
		Taker:          row[4],
		PostedGets:     row[5],
		PostedPays:     row[6],
		ExecXRP:        execXRP,
		Counterparties: counterparties,
	}
}

// parseCloseTime parses "2025-Oct-19 08:59:20.000000000 UTC" style stamps.
func parseCloseTime(s string) time.Time {
	trimmed := s
	if i := strings.IndexByte(trimmed, '.'); i >= 0 {
		trimmed = trimmed[:i]
	}
	t, err := time.Parse(closeTimeLayout, trimmed)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
