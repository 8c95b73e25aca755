// ABOUTME: RecoveryScore model, Category enum, and conflict policy for score upserts.
// ABOUTME: One computed score per athlete per date, keyed by a name-based UUID.
package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category is one of four ordinal readiness tiers.
type Category string

const (
	CategoryRecovered      Category = "recovered"
	CategoryModerate       Category = "moderate"
	CategoryUnderRecovered Category = "under_recovered"
	CategoryCritical       Category = "critical"
)

// AllCategories lists categories from best to worst.
var AllCategories = []Category{
	CategoryRecovered, CategoryModerate, CategoryUnderRecovered, CategoryCritical,
}

// IsValidCategory checks if a string is a known category.
func IsValidCategory(s string) bool {
	for _, c := range AllCategories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// ConflictPolicy decides what an upsert does when a score already exists for the same day.
type ConflictPolicy string

const (
	// LastWriteWins replaces the stored row unconditionally.
	LastWriteWins ConflictPolicy = "last_write_wins"
	// HighestConfidence keeps the stored row when its confidence is higher than the new one.
	HighestConfidence ConflictPolicy = "highest_confidence"
)

// IsValidConflictPolicy checks if a string names a known policy.
func IsValidConflictPolicy(s string) bool {
	return s == string(LastWriteWins) || s == string(HighestConfidence)
}

// AdjustmentDetails records which modifiers were actually applied to training.
type AdjustmentDetails struct {
	Action            Action  `json:"action" yaml:"action"`
	IntensityModifier float64 `json:"intensity_modifier" yaml:"intensity_modifier"`
	VolumeModifier    float64 `json:"volume_modifier" yaml:"volume_modifier"`
}

// RecoveryScore is the computed readiness artifact for one athlete on one date.
type RecoveryScore struct {
	ID     uuid.UUID `json:"id" yaml:"id"`
	UserID string    `json:"user_id" yaml:"user_id"`
	Date   time.Time `json:"date" yaml:"date"`

	HRVScore        *int `json:"hrv_score,omitempty" yaml:"hrv_score,omitempty"`
	SleepScore      *int `json:"sleep_score,omitempty" yaml:"sleep_score,omitempty"`
	RestingHRScore  *int `json:"resting_hr_score,omitempty" yaml:"resting_hr_score,omitempty"`
	SubjectiveScore *int `json:"subjective_score,omitempty" yaml:"subjective_score,omitempty"`

	OverallScore      int      `json:"overall_score" yaml:"overall_score"`
	Category          Category `json:"category" yaml:"category"`
	IntensityModifier float64  `json:"intensity_modifier" yaml:"intensity_modifier"`
	VolumeModifier    float64  `json:"volume_modifier" yaml:"volume_modifier"`
	SuggestedAction   string   `json:"suggested_action" yaml:"suggested_action"`
	DataSources       []Source `json:"data_sources" yaml:"data_sources"`
	Confidence        float64  `json:"confidence" yaml:"confidence"`

	UserAcknowledged  bool               `json:"user_acknowledged" yaml:"user_acknowledged"`
	AcknowledgedAt    *time.Time         `json:"acknowledged_at,omitempty" yaml:"acknowledged_at,omitempty"`
	AdjustmentApplied bool               `json:"adjustment_applied" yaml:"adjustment_applied"`
	AdjustmentDetails *AdjustmentDetails `json:"adjustment_details,omitempty" yaml:"adjustment_details,omitempty"`
}

// ScoreID returns the stable ID for a user's score on a date, so recomputing
// the same day keeps the same identifier.
func ScoreID(userID string, date time.Time) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL,
		[]byte("recovery:score:"+userID+":"+FormatDate(date)))
}

// ValidateKey checks the identifying fields of a score.
func (s *RecoveryScore) ValidateKey() error {
	if strings.TrimSpace(s.UserID) == "" {
		return Invalid("user_id", "required")
	}
	if s.Date.IsZero() {
		return Invalid("date", "required")
	}
	return nil
}

// ValidateRanges checks identifiers and numeric bounds. Category consistency
// is checked by the scoring package, which owns the classifier.
func (s *RecoveryScore) ValidateRanges() error {
	if err := s.ValidateKey(); err != nil {
		return err
	}
	for field, v := range map[string]*int{
		"hrv_score":        s.HRVScore,
		"sleep_score":      s.SleepScore,
		"resting_hr_score": s.RestingHRScore,
		"subjective_score": s.SubjectiveScore,
	} {
		if v != nil && (*v < 0 || *v > 100) {
			return Invalid(field, "must be between 0 and 100, got %d", *v)
		}
	}
	if s.OverallScore < 0 || s.OverallScore > 100 {
		return Invalid("overall_score", "must be between 0 and 100, got %d", s.OverallScore)
	}
	if math.IsNaN(s.Confidence) || s.Confidence < 0 || s.Confidence > 1 {
		return Invalid("confidence", "must be between 0 and 1, got %v", s.Confidence)
	}
	if !IsValidCategory(string(s.Category)) {
		return Invalid("category", "unknown category %q", s.Category)
	}
	for _, src := range s.DataSources {
		if !IsValidSource(string(src)) {
			return Invalid("data_sources", "unknown source %q", src)
		}
	}
	return nil
}
