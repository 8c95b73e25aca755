// ABOUTME: ScoreInputs groups the optional normalized signals for one day.
// ABOUTME: Validation rejects out-of-domain inputs instead of clamping them.
package scoring

import (
	"math"

	"github.com/harperreed/recovery/internal/models"
)

// HRVInput is today's RMSSD and its 7-day baseline (0 when unknown).
type HRVInput struct {
	CurrentRMSSD    float64 `json:"current_rmssd"`
	Baseline7DayAvg float64 `json:"baseline_7day_avg"`
}

// SleepInput is last night's sleep.
type SleepInput struct {
	DurationMin   float64 `json:"duration_min"`
	EfficiencyPct float64 `json:"efficiency_pct"`
	DeepMin       float64 `json:"deep_min"`
	REMMin        float64 `json:"rem_min"`
}

// RestingHRInput is today's resting heart rate and its baseline (0 when unknown).
type RestingHRInput struct {
	CurrentHR  float64 `json:"current_hr"`
	BaselineHR float64 `json:"baseline_hr"`
}

// SubjectiveInput holds four 1-5 self-reported ratings.
type SubjectiveInput struct {
	Energy   int `json:"energy"`
	Soreness int `json:"soreness"`
	Stress   int `json:"stress"`
	Mood     int `json:"mood"`
}

// ScoreInputs is everything needed to compute one day's score. Any group may be nil.
type ScoreInputs struct {
	HRV        *HRVInput        `json:"hrv,omitempty"`
	Sleep      *SleepInput      `json:"sleep,omitempty"`
	RestingHR  *RestingHRInput  `json:"resting_hr,omitempty"`
	Subjective *SubjectiveInput `json:"subjective,omitempty"`
	Sources    []models.Source  `json:"sources,omitempty"`
}

// Validate checks every present input against its declared domain.
func (in ScoreInputs) Validate() error {
	if in.HRV != nil {
		if err := nonNegative("hrv.current_rmssd", in.HRV.CurrentRMSSD); err != nil {
			return err
		}
		if err := nonNegative("hrv.baseline_7day_avg", in.HRV.Baseline7DayAvg); err != nil {
			return err
		}
	}
	if in.Sleep != nil {
		if err := nonNegative("sleep.duration_min", in.Sleep.DurationMin); err != nil {
			return err
		}
		if e := in.Sleep.EfficiencyPct; !finite(e) || e < 0 || e > 100 {
			return models.Invalid("sleep.efficiency_pct", "must be between 0 and 100, got %v", e)
		}
		if err := nonNegative("sleep.deep_min", in.Sleep.DeepMin); err != nil {
			return err
		}
		if err := nonNegative("sleep.rem_min", in.Sleep.REMMin); err != nil {
			return err
		}
	}
	if in.RestingHR != nil {
		if err := nonNegative("resting_hr.current_hr", in.RestingHR.CurrentHR); err != nil {
			return err
		}
		if err := nonNegative("resting_hr.baseline_hr", in.RestingHR.BaselineHR); err != nil {
			return err
		}
	}
	if s := in.Subjective; s != nil {
		for _, r := range []struct {
			field string
			v     int
		}{
			{"subjective.energy", s.Energy},
			{"subjective.soreness", s.Soreness},
			{"subjective.stress", s.Stress},
			{"subjective.mood", s.Mood},
		} {
			if err := models.ValidateRating(r.field, r.v); err != nil {
				return err
			}
		}
	}
	for _, src := range in.Sources {
		if !models.IsValidSource(string(src)) {
			return models.Invalid("sources", "unknown source %q", src)
		}
	}
	return nil
}

// SubScores computes each present sub-score.
func (in ScoreInputs) SubScores() SubScores {
	var sub SubScores
	if in.HRV != nil {
		sub.HRV = models.Int(HRVScore(in.HRV.CurrentRMSSD, in.HRV.Baseline7DayAvg))
	}
	if in.Sleep != nil {
		sub.Sleep = models.Int(SleepScore(in.Sleep.DurationMin, in.Sleep.EfficiencyPct, in.Sleep.DeepMin, in.Sleep.REMMin))
	}
	if in.RestingHR != nil {
		sub.RestingHR = models.Int(RestingHRScore(in.RestingHR.CurrentHR, in.RestingHR.BaselineHR))
	}
	if in.Subjective != nil {
		s := in.Subjective
		sub.Subjective = models.Int(SubjectiveScore(s.Energy, s.Soreness, s.Stress, s.Mood))
	}
	return sub
}

func nonNegative(field string, v float64) error {
	if !finite(v) || v < 0 {
		return models.Invalid(field, "must be a non-negative number, got %v", v)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
