package domain

import "time"

// WhitelistCategory groups trusted tokens by why they are trusted.
type WhitelistCategory string

const (
	CategoryStablecoin    WhitelistCategory = "stablecoin"
	CategoryMajorToken    WhitelistCategory = "major_token"
	CategoryExchangeToken WhitelistCategory = "exchange_token"
	CategoryVerified      WhitelistCategory = "verified"
)

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c WhitelistCategory) bool {
	switch c {
	case CategoryStablecoin, CategoryMajorToken, CategoryExchangeToken, CategoryVerified:
		return true
	}
	return false
}

// WhitelistEntry marks one (token code, issuer) pair as trusted. A
// whitelisted token is forced to zero risk regardless of computed signals.
type WhitelistEntry struct {
	TokenCode   string
	TokenIssuer string
	TokenName   string
	Category    WhitelistCategory
	Reason      string
	AddedDate   time.Time
	AddedBy     string
}

// CollectorStatus reports the state of one collector after a batch phase.
type CollectorStatus string

const (
	CollectorRunning CollectorStatus = "running"
	CollectorStopped CollectorStatus = "stopped"
	CollectorError   CollectorStatus = "error"
)

// CollectionState is one bookkeeping row per collector per batch run.
// Corresponds to the collection_state table in Postgres.
type CollectionState struct {
	RunID           string // batch run identifier, shared by all phases of a run
	CollectorName   string // "book_screener" | "trade_collector"
	LastLedgerHash  string
	LastLedgerIndex int64
	LastUpdate      time.Time
	Status          CollectorStatus
	ErrorMessage    string
}
