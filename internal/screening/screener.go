// Package screening flags ledgers whose book-level activity looks like
// volume inflation: high XRP volume moving inside an implausibly tight
// price band. Flagged ledgers get full trade collection downstream.
package screening

import (
	"strconv"
	"strings"
	"time"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
	"github.com/realgrapedrop/xrp-watchdog/internal/xrpl"
)

// Default screening thresholds.
const (
	DefaultVolumeThresholdXRP     = 5_000_000 // drops
	DefaultPriceVarianceThreshold = 0.01      // 1%
)

// Screener converts node book-change rows into screened BookChange
// records.
type Screener struct {
	volumeThreshold   float64
	varianceThreshold float64
}

// NewScreener creates a Screener. Zero thresholds select the defaults.
func NewScreener(volumeThreshold, varianceThreshold float64) *Screener {
	if volumeThreshold == 0 {
		volumeThreshold = DefaultVolumeThresholdXRP
	}
	if varianceThreshold == 0 {
		varianceThreshold = DefaultPriceVarianceThreshold
	}
	return &Screener{
		volumeThreshold:   volumeThreshold,
		varianceThreshold: varianceThreshold,
	}
}

// Screen builds one BookChange per currency pair in the ledger.
func (s *Screener) Screen(header *domain.LedgerHeader, rows []xrpl.BookChangeRow) []*domain.BookChange {
	closeTime := parseCloseTime(header.CloseTime)

	out := make([]*domain.BookChange, 0, len(rows))
	for _, row := range rows {
		code, issuer := parsePair(row.CurrencyB)

		open := parseFloat(row.Open)
		high := parseFloat(row.High)
		low := parseFloat(row.Low)
		volumeXRP := parseFloat(row.VolumeA)
		variance := priceVariance(open, high, low)

		out = append(out, &domain.BookChange{
			Time:          closeTime,
			LedgerIndex:   header.LedgerIndex,
			LedgerHash:    header.LedgerHash,
			CurrencyPair:  row.CurrencyA + "/" + issuer + "/" + code,
			CurrencyCode:  code,
			Issuer:        issuer,
			Open:          open,
			High:          high,
			Low:           low,
			Close:         parseFloat(row.Close),
			VolumeXRP:     volumeXRP,
			VolumeToken:   parseFloat(row.VolumeB),
			PriceVariance: variance,
			Suspicious:    s.suspicious(volumeXRP, variance),
		})
	}
	return out
}

// suspicious: big volume trading in a tight band.
func (s *Screener) suspicious(volumeXRP, variance float64) bool {
	return volumeXRP >= s.volumeThreshold && variance < s.varianceThreshold
}

// priceVariance is the ledger-local band width relative to open.
// Returns 0 when open is 0 or any input failed to parse.
func priceVariance(open, high, low float64) float64 {
	if open == 0 {
		return 0
	}
	return (high - low) / open
}

// parsePair splits currency_b ("issuer/CODE" for IOUs, bare code for
// XRP-like legs) into code and issuer.
func parsePair(currencyB string) (code, issuer string) {
	if i := strings.IndexByte(currencyB, '/'); i >= 0 {
		return currencyB[i+1:], currencyB[:i]
	}
	return currencyB, ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseCloseTime parses rippled's close_time_human, fraction stripped.
func parseCloseTime(s string) time.Time {
	trimmed := s
	if i := strings.IndexByte(trimmed, '.'); i >= 0 {
		trimmed = trimmed[:i]
	}
	t, err := time.Parse("2006-Jan-02 15:04:05", trimmed)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
