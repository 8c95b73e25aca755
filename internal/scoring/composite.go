// ABOUTME: Composite aggregator combining available sub-scores into one score.
// ABOUTME: Missing signals lower confidence and drop out of a renormalized average.
package scoring

import "math"

// Weights are the relative importance of each sub-score.
type Weights struct {
	HRV        float64 `json:"hrv"`
	Sleep      float64 `json:"sleep"`
	RestingHR  float64 `json:"resting_hr"`
	Subjective float64 `json:"subjective"`
}

// DefaultWeights favors objective physiology over self-report.
var DefaultWeights = Weights{
	HRV:        0.35,
	Sleep:      0.35,
	RestingHR:  0.20,
	Subjective: 0.10,
}

// NeutralScore and NeutralConfidence are used when no signal is available.
const (
	NeutralScore      = 50
	NeutralConfidence = 0.5
)

// SubScores holds the four optional sub-scores.
type SubScores struct {
	HRV        *int `json:"hrv,omitempty"`
	Sleep      *int `json:"sleep,omitempty"`
	RestingHR  *int `json:"resting_hr,omitempty"`
	Subjective *int `json:"subjective,omitempty"`
}

// Composite is the aggregated score and how much of the signal backed it.
type Composite struct {
	Overall    int
	Confidence float64
}

// Aggregate combines sub-scores with DefaultWeights.
func Aggregate(sub SubScores) Composite {
	return DefaultWeights.Aggregate(sub)
}

// Aggregate returns the weight-renormalized average over present sub-scores.
// Confidence is the sum of present weights, rounded to two decimals.
func (w Weights) Aggregate(sub SubScores) Composite {
	var weightSum, total float64
	for _, part := range []struct {
		score  *int
		weight float64
	}{
		{sub.HRV, w.HRV},
		{sub.Sleep, w.Sleep},
		{sub.RestingHR, w.RestingHR},
		{sub.Subjective, w.Subjective},
	} {
		if part.score == nil {
			continue
		}
		weightSum += part.weight
		total += part.weight * float64(*part.score)
	}

	if weightSum == 0 {
		return Composite{Overall: NeutralScore, Confidence: NeutralConfidence}
	}

	return Composite{
		Overall:    int(math.Round(total / weightSum)),
		Confidence: math.Round(weightSum*100) / 100,
	}
}
