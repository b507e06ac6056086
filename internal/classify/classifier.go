// Package classify decides whether a token's aggregate behavior matches
// an automated bridge protocol, organic trading, or manipulation.
//
// The classifier is independent of the whitelist; the override is applied
// at the orchestrator level only.
package classify

import (
	"math"
	"strings"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// signalRule is one behavioral check. Rules accumulate a discrete signal
// count and a continuous confidence sum; they are evaluated in fixed
// order so the contribution of each rule stays unit-testable.
type signalRule struct {
	name       string
	predicate  func(*domain.TokenStatistics) bool
	signals    int
	confidence float64
}

// decisionRule maps the accumulated signals back to a label. The first
// matching rule wins; the bridge rules come before the legitimate and
// manipulation fallbacks so a token with few actors but strong automation
// signals is never mislabeled manipulation.
type decisionRule struct {
	predicate  func(signals int, conf float64, stats *domain.TokenStatistics) bool
	label      domain.Classification
	confidence func(conf float64) float64
}

var signalRules = []signalRule{
	{
		name: "automated low-actor high-volume",
		predicate: func(s *domain.TokenStatistics) bool {
			return s.UniqueTakers <= 3 && s.TotalXRPVolume > 10_000
		},
		signals:    3,
		confidence: 0.40,
	},
	{
		name: "algorithmic pricing",
		predicate: func(s *domain.TokenStatistics) bool {
			return s.PriceVariancePercent < 1.0 && s.TotalTrades > 10
		},
		signals:    2,
		confidence: 0.25,
	},
	{
		name: "automated sizing",
		predicate: func(s *domain.TokenStatistics) bool {
			return s.SizeVariancePercent < 5.0 && s.TotalTrades > 10
		},
		signals:    2,
		confidence: 0.25,
	},
	{
		name: "centralized operator",
		predicate: func(s *domain.TokenStatistics) bool {
			return s.UniqueTakers <= 5 && s.TotalXRPVolume > 50_000
		},
		signals:    2,
		confidence: 0.10,
	},
	{
		name: "bridge naming convention",
		predicate: func(s *domain.TokenStatistics) bool {
			return hasBridgeName(s.TokenCode)
		},
		signals:    1,
		confidence: 0.15,
	},
}

var decisionRules = []decisionRule{
	{
		predicate: func(signals int, _ float64, _ *domain.TokenStatistics) bool {
			return signals >= 5
		},
		label:      domain.ClassBridge,
		confidence: func(conf float64) float64 { return math.Min(1.0, conf) },
	},
	{
		predicate: func(signals int, _ float64, s *domain.TokenStatistics) bool {
			return signals >= 3 && s.TotalXRPVolume > 20_000
		},
		label:      domain.ClassBridge,
		confidence: func(conf float64) float64 { return math.Min(0.8, conf) },
	},
	{
		predicate: func(_ int, _ float64, s *domain.TokenStatistics) bool {
			return s.UniqueTakers > 20 && s.TotalTrades > 100
		},
		label:      domain.ClassLegitimate,
		confidence: func(float64) float64 { return 0.6 },
	},
	{
		predicate: func(_ int, _ float64, s *domain.TokenStatistics) bool {
			return s.UniqueTakers <= 5 && s.TotalXRPVolume > 1_000
		},
		label:      domain.ClassManipulation,
		confidence: func(float64) float64 { return 0.7 },
	},
}

// bridgeNameParts are substrings common to bridged/wrapped token codes.
var bridgeNameParts = []string{"AXL", "BRIDGE", "WRAPPED", "W", "X", "ANY", "MULTI"}

func hasBridgeName(code string) bool {
	upper := strings.ToUpper(code)
	for _, part := range bridgeNameParts {
		if strings.Contains(upper, part) {
			return true
		}
	}
	return false
}

// Classify evaluates the signal rules in order and applies the first
// matching decision rule. Identical input always yields an identical
// result. The unknown fallback carries a fixed 0.3 confidence.
func Classify(stats *domain.TokenStatistics) domain.ClassificationResult {
	signals := 0
	confidence := 0.0

	for _, rule := range signalRules {
		if rule.predicate(stats) {
			signals += rule.signals
			confidence += rule.confidence
		}
	}

	for _, rule := range decisionRules {
		if rule.predicate(signals, confidence, stats) {
			return domain.ClassificationResult{
				Label:      rule.label,
				Confidence: rule.confidence(confidence),
				Signals:    signals,
			}
		}
	}

	return domain.ClassificationResult{
		Label:      domain.ClassUnknown,
		Confidence: 0.3,
		Signals:    signals,
	}
}
