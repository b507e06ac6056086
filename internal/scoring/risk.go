// Package scoring maps per-token aggregate statistics to manipulation
// risk and burst scores. All functions are pure over one statistics row.
package scoring

import (
	"math"

	"github.com/realgrapedrop/xrp-watchdog/internal/domain"
)

// Component caps. The five components sum to at most 125 before the
// final clamp to 100.
const (
	volumeCap        = 50.0
	concentrationCap = 30.0
	stabilityCap     = 20.0
	densityCap       = 15.0
	uniformityCap    = 10.0
)

// RiskScore computes the manipulation risk score in [0, 100], rounded to
// two decimals. A whitelisted token scores exactly 0 regardless of the
// other signals.
func RiskScore(stats *domain.TokenStatistics) float64 {
	if stats.IsWhitelisted {
		return 0.0
	}

	score := volumeComponent(stats.TotalXRPVolume)
	score += concentrationComponent(stats.UniqueTakers)
	score += stabilityComponent(stats.PriceVariancePercent)
	score += densityComponent(stats.TradeDensity)
	score += uniformityComponent(stats.SizeVariancePercent)

	if score > 100 {
		score = 100
	}
	return round2(score)
}

// volumeComponent scales logarithmically so a single extreme-volume token
// cannot saturate the score; the +1 keeps sub-unit volumes defined.
func volumeComponent(totalXRPVolume float64) float64 {
	millions := totalXRPVolume / 1e6
	return math.Min(volumeCap, math.Log10(millions+1)*12.5)
}

// concentrationComponent: fewer independent actors, higher suspicion.
func concentrationComponent(uniqueTakers int64) float64 {
	switch {
	case uniqueTakers <= 2:
		return concentrationCap
	case uniqueTakers <= 5:
		return 22
	case uniqueTakers <= 10:
		return 15
	case uniqueTakers <= 20:
		return 8
	default:
		return 3
	}
}

// stabilityComponent: implausibly low price variance suggests
// algorithmic self-trading.
func stabilityComponent(priceVariancePct float64) float64 {
	switch {
	case priceVariancePct < 0.5:
		return stabilityCap
	case priceVariancePct < 1:
		return 16
	case priceVariancePct < 3:
		return 12
	case priceVariancePct < 5:
		return 8
	case priceVariancePct < 10:
		return 4
	default:
		return 1
	}
}

// densityComponent rewards temporal clustering, in trades per hour.
func densityComponent(tradeDensity float64) float64 {
	switch {
	case tradeDensity >= 100:
		return densityCap
	case tradeDensity >= 50:
		return 12
	case tradeDensity >= 20:
		return 8
	case tradeDensity >= 10:
		return 5
	default:
		return 2
	}
}

// uniformityComponent: robotically uniform trade sizes indicate scripted
// trading.
func uniformityComponent(sizeVariancePct float64) float64 {
	switch {
	case sizeVariancePct < 2:
		return uniformityCap
	case sizeVariancePct < 5:
		return 7
	case sizeVariancePct < 10:
		return 4
	default:
		return 1
	}
}

// BurstScore is the temporal-clustering diagnostic shown alongside the
// risk score, computed from trade density alone. It is not a component
// of RiskScore.
func BurstScore(stats *domain.TokenStatistics) float64 {
	if stats.IsWhitelisted {
		return 0.0
	}

	switch {
	case stats.TradeDensity >= 100:
		return 95.0
	case stats.TradeDensity >= 50:
		return 75.0
	case stats.TradeDensity >= 20:
		return 50.0
	case stats.TradeDensity >= 10:
		return 25.0
	default:
		return 5.0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
