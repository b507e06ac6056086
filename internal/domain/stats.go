package domain

import "time"

// TokenStatistics is one aggregated row per (token code, issuer) pair,
// produced by the analytics store over all stored trades with at least
// MinTradesForStats trades. Read-only input to scoring; immutable within
// one scoring pass.
type TokenStatistics struct {
	TokenCode   string
	TokenIssuer string

	TotalTrades         int64
	UniqueTakers        int64
	UniqueCounterparties int64
	LedgerSpan          int64 // distinct ledgers the token traded in
	TotalXRPVolume      float64
	TotalTokenVolume    float64
	AvgPrice            float64
	PriceStddev         float64
	AvgTradeXRP         float64
	TradeSizeStddev     float64
	FirstSeen           time.Time
	LastSeen            time.Time
	SecondsActive       int64
	DaysActive          int64

	// Derived by the aggregation query, null-coalesced to zero.
	PriceVariancePercent float64 // price_stddev / avg_price * 100
	SizeVariancePercent  float64 // trade_size_stddev / avg_trade_xrp * 100
	TradesPerAccount     float64
	XRPVolumePerAccount  float64
	AvgTimeGapSeconds    float64
	TradeDensity         float64 // trades per hour over the active span

	IsWhitelisted     bool
	WhitelistCategory string // "none" when not whitelisted
}

// MinTradesForStats is the minimum aggregated trade count for a token to
// appear in a scoring pass.
const MinTradesForStats = 3

// DeriveRatios fills the derived fields from the base aggregates. Ratios
// with a zero denominator come out as zero, never NaN. When the active
// span is zero (all trades in one ledger close) the density degenerates
// to the raw trade count, which still lands in the right scoring band.
func (s *TokenStatistics) DeriveRatios() {
	if s.AvgPrice > 0 {
		s.PriceVariancePercent = s.PriceStddev / s.AvgPrice * 100
	}
	if s.AvgTradeXRP > 0 {
		s.SizeVariancePercent = s.TradeSizeStddev / s.AvgTradeXRP * 100
	}
	if s.UniqueTakers > 0 {
		s.TradesPerAccount = float64(s.TotalTrades) / float64(s.UniqueTakers)
		s.XRPVolumePerAccount = s.TotalXRPVolume / float64(s.UniqueTakers)
	}
	if s.TotalTrades > 1 {
		s.AvgTimeGapSeconds = float64(s.SecondsActive) / float64(s.TotalTrades-1)
	}
	if s.SecondsActive > 0 {
		s.TradeDensity = float64(s.TotalTrades) / (float64(s.SecondsActive) / 3600)
	} else {
		s.TradeDensity = float64(s.TotalTrades)
	}
}
