// ABOUTME: RecoveryDataPoint model and Source enum for raw daily observations.
// ABOUTME: One row per athlete, date, and source; every signal is optional.
package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source identifies where a data point came from.
type Source string

const (
	SourceTerraAPI    Source = "terra_api"
	SourceManual      Source = "manual"
	SourceWhoop       Source = "whoop"
	SourceOura        Source = "oura"
	SourceGarmin      Source = "garmin"
	SourceAppleHealth Source = "apple_health"
	SourceFitbit      Source = "fitbit"
)

// AllSources lists the valid sources in merge priority order: when two
// sources report the same field for the same day, the earlier one wins.
var AllSources = []Source{
	SourceManual, SourceWhoop, SourceOura, SourceGarmin,
	SourceAppleHealth, SourceFitbit, SourceTerraAPI,
}

// IsValidSource checks if a string is a known data source.
func IsValidSource(s string) bool {
	for _, src := range AllSources {
		if string(src) == s {
			return true
		}
	}
	return false
}

// SourcePriority returns the merge rank of a source (lower wins).
func SourcePriority(s Source) int {
	for i, src := range AllSources {
		if src == s {
			return i
		}
	}
	return len(AllSources)
}

// RecoveryDataPoint is one raw observation for one athlete on one date from one source.
type RecoveryDataPoint struct {
	ID     uuid.UUID `json:"id" yaml:"id"`
	UserID string    `json:"user_id" yaml:"user_id"`
	Date   time.Time `json:"date" yaml:"date"`
	Source Source    `json:"source" yaml:"source"`

	// HRV
	HRVRMSSD *float64 `json:"hrv_rmssd,omitempty" yaml:"hrv_rmssd,omitempty"`
	HRVSDNN  *float64 `json:"hrv_sdnn,omitempty" yaml:"hrv_sdnn,omitempty"`

	// Heart rate
	RestingHR  *float64 `json:"resting_hr,omitempty" yaml:"resting_hr,omitempty"`
	AvgHRAwake *float64 `json:"avg_hr_awake,omitempty" yaml:"avg_hr_awake,omitempty"`

	// Sleep
	SleepDurationMin *float64 `json:"sleep_duration_min,omitempty" yaml:"sleep_duration_min,omitempty"`
	SleepEfficiency  *float64 `json:"sleep_efficiency,omitempty" yaml:"sleep_efficiency,omitempty"`
	DeepSleepMin     *float64 `json:"deep_sleep_min,omitempty" yaml:"deep_sleep_min,omitempty"`
	REMSleepMin      *float64 `json:"rem_sleep_min,omitempty" yaml:"rem_sleep_min,omitempty"`
	Awakenings       *int     `json:"awakenings,omitempty" yaml:"awakenings,omitempty"`
	SleepQuality     *int     `json:"sleep_quality,omitempty" yaml:"sleep_quality,omitempty"`

	// Activity
	Steps         *int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	ActiveMinutes *int     `json:"active_minutes,omitempty" yaml:"active_minutes,omitempty"`
	TrainingLoad  *float64 `json:"training_load,omitempty" yaml:"training_load,omitempty"`

	// Subjective, each 1-5
	Energy   *int `json:"energy,omitempty" yaml:"energy,omitempty"`
	Soreness *int `json:"soreness,omitempty" yaml:"soreness,omitempty"`
	Stress   *int `json:"stress,omitempty" yaml:"stress,omitempty"`
	Mood     *int `json:"mood,omitempty" yaml:"mood,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// DataPointID returns the stable ID for the (user, date, source) upsert key.
func DataPointID(userID string, date time.Time, source Source) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL,
		[]byte("recovery:datapoint:"+userID+":"+FormatDate(date)+":"+string(source)))
}

// NewDataPoint creates an empty data point for the given upsert key.
func NewDataPoint(userID string, date time.Time, source Source) *RecoveryDataPoint {
	now := time.Now().UTC()
	date = DateOnly(date)
	return &RecoveryDataPoint{
		ID:        DataPointID(userID, date, source),
		UserID:    userID,
		Date:      date,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks identifying fields and the declared domain of every present signal.
func (p *RecoveryDataPoint) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return Invalid("user_id", "required")
	}
	if p.Date.IsZero() {
		return Invalid("date", "required")
	}
	if !IsValidSource(string(p.Source)) {
		return Invalid("source", "unknown source %q", p.Source)
	}

	nonNegative := map[string]*float64{
		"hrv_rmssd":          p.HRVRMSSD,
		"hrv_sdnn":           p.HRVSDNN,
		"resting_hr":         p.RestingHR,
		"avg_hr_awake":       p.AvgHRAwake,
		"sleep_duration_min": p.SleepDurationMin,
		"deep_sleep_min":     p.DeepSleepMin,
		"rem_sleep_min":      p.REMSleepMin,
		"training_load":      p.TrainingLoad,
	}
	for field, v := range nonNegative {
		if v != nil && (!isFinite(*v) || *v < 0) {
			return Invalid(field, "must be a non-negative number, got %v", *v)
		}
	}
	if p.SleepEfficiency != nil {
		if e := *p.SleepEfficiency; !isFinite(e) || e < 0 || e > 100 {
			return Invalid("sleep_efficiency", "must be between 0 and 100, got %v", e)
		}
	}

	counts := map[string]*int{
		"awakenings":     p.Awakenings,
		"steps":          p.Steps,
		"active_minutes": p.ActiveMinutes,
	}
	for field, v := range counts {
		if v != nil && *v < 0 {
			return Invalid(field, "must not be negative, got %d", *v)
		}
	}

	ratings := map[string]*int{
		"sleep_quality": p.SleepQuality,
		"energy":        p.Energy,
		"soreness":      p.Soreness,
		"stress":        p.Stress,
		"mood":          p.Mood,
	}
	for field, v := range ratings {
		if v != nil {
			if err := ValidateRating(field, *v); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateRating checks a 1-5 subjective rating.
func ValidateRating(field string, v int) error {
	if v < 1 || v > 5 {
		return Invalid(field, "rating must be between 1 and 5, got %d", v)
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
