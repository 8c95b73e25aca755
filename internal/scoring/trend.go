// ABOUTME: Trend detector comparing the recent and older halves of a score window.
// ABOUTME: Needs at least three scores; the odd remainder goes to the older half.
package scoring

import "github.com/harperreed/recovery/internal/models"

// MinTrendScores is the fewest scores that produce a trend.
const MinTrendScores = 3

// trendThreshold is the average difference that counts as a direction change.
const trendThreshold = 5.0

// DetectTrend labels the trajectory of scores ordered most-recent-first.
// ok is false when there are fewer than MinTrendScores values.
func DetectTrend(recentFirst []int) (trend models.Trend, ok bool) {
	n := len(recentFirst)
	if n < MinTrendScores {
		return "", false
	}

	midpoint := n / 2
	diff := mean(recentFirst[:midpoint]) - mean(recentFirst[midpoint:])

	switch {
	case diff > trendThreshold:
		return models.TrendImproving, true
	case diff < -trendThreshold:
		return models.TrendDeclining, true
	default:
		return models.TrendStable, true
	}
}

func mean(values []int) float64 {
	var sum int
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}
