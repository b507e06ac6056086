package domain

import "time"

// BookChange is one per-currency-pair OHLC summary of balance changes in a
// single ledger, from the node's book_changes query. Corresponds to the
// book_changes table in ClickHouse.
type BookChange struct {
	Time         time.Time
	LedgerIndex  int64
	LedgerHash   string
	CurrencyPair string // "XRP_drops/<issuer>/<code>"
	CurrencyCode string
	Issuer       string

	Open  float64
	High  float64
	Low   float64
	Close float64

	VolumeXRP     float64 // two-sided volume on the XRP leg, in drops
	VolumeToken   float64
	PriceVariance float64 // (high - low) / open
	Suspicious    bool    // flags the ledger for detailed trade collection
}
