package domain

import "time"

// Classification labels a token's trading behavior.
type Classification string

const (
	ClassBridge       Classification = "bridge"
	ClassManipulation Classification = "manipulation"
	ClassLegitimate   Classification = "legitimate"
	ClassUnknown      Classification = "unknown"
)

// ClassificationResult is the classifier's verdict for one token.
type ClassificationResult struct {
	Label      Classification
	Confidence float64 // in [0, 1]
	Signals    int     // accumulated discrete signal count
}

// TokenRiskRecord is the finalized per-token output of a scoring pass.
// Corresponds to the token_stats table; each pass replaces the whole
// table, prior records are never patched in place.
type TokenRiskRecord struct {
	Stats TokenStatistics // the aggregate row the scores were computed from

	RiskScore       float64 // 0-100, after any bridge discount
	LegacyRiskScore float64 // 0-100, first-generation algorithm kept for comparison
	BurstScore      float64 // 0-100 temporal-clustering diagnostic

	Label      Classification
	Confidence float64 // in [0, 1]

	Whitelisted bool // effective whitelist flag applied to this record
	UpdatedAt   time.Time
}
