package scoring

import "github.com/realgrapedrop/xrp-watchdog/internal/domain"

// LegacyRiskScore is the first-generation score kept for side-by-side
// comparison in the output table: few participants + low price variance +
// low size variance + high trades per account. No volume or temporal
// signals. Whitelisted tokens score 0.
func LegacyRiskScore(stats *domain.TokenStatistics) float64 {
	if stats.IsWhitelisted {
		return 0.0
	}

	score := 0.0

	switch {
	case stats.UniqueTakers <= 2:
		score += 40
	case stats.UniqueTakers <= 5:
		score += 30
	case stats.UniqueTakers <= 10:
		score += 20
	default:
		score += 10
	}

	switch {
	case stats.PriceVariancePercent < 1:
		score += 25
	case stats.PriceVariancePercent < 5:
		score += 15
	case stats.PriceVariancePercent < 10:
		score += 10
	default:
		score += 5
	}

	switch {
	case stats.SizeVariancePercent < 5:
		score += 20
	case stats.SizeVariancePercent < 10:
		score += 15
	default:
		score += 5
	}

	switch {
	case stats.TradesPerAccount >= 10:
		score += 15
	case stats.TradesPerAccount >= 5:
		score += 10
	default:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
