// ABOUTME: Sub-score calculators turning one normalized signal category into 0-100.
// ABOUTME: Pure, deterministic functions with no side effects.
package scoring

import "math"

// HRVScore rates current RMSSD against the 7-day baseline. No change scores 70;
// each percent above or below baseline moves the score by 1.5 points. An unknown
// baseline yields a neutral 50.
func HRVScore(currentRMSSD, baseline float64) int {
	if baseline == 0 {
		return 50
	}
	percentDiff := (currentRMSSD - baseline) / baseline * 100
	return clampScore(math.Round(70 + percentDiff*1.5))
}

// SleepScore sums four capped components: duration (40), efficiency (30),
// deep sleep (15) and REM (15).
func SleepScore(durationMin, efficiencyPct, deepMin, remMin float64) int {
	var duration float64
	switch {
	case durationMin >= 420 && durationMin <= 540:
		duration = 40
	case durationMin < 420:
		duration = 40 * durationMin / 420
	default:
		duration = 40 * 540 / durationMin
	}

	efficiency := math.Min(30, efficiencyPct/85*30)
	deep := math.Min(15, deepMin/90*15)
	rem := math.Min(15, remMin/90*15)

	return int(math.Round(duration + efficiency + deep + rem))
}

// RestingHRScore rates resting heart rate against baseline; lower is better.
// Each percent above baseline costs 4 points.
func RestingHRScore(currentHR, baseline float64) int {
	if baseline == 0 {
		return 50
	}
	percentDiff := (currentHR - baseline) / baseline * 100
	return clampScore(math.Round(70 - percentDiff*4))
}

// SubjectiveScore combines four 1-5 ratings. Soreness and stress are inverted.
func SubjectiveScore(energy, soreness, stress, mood int) int {
	total := float64(energy)/5*40 +
		float64(6-soreness)/5*20 +
		float64(6-stress)/5*20 +
		float64(mood)/5*20
	return int(math.Round(total))
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
