// ABOUTME: RecoveryAdjustmentLog model, Action and Trend enums.
// ABOUTME: Adjustment logs are append-only records of athlete decisions.
package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is what the athlete did with a suggested adjustment.
type Action string

const (
	ActionAccepted       Action = "accepted"
	ActionRejected       Action = "rejected"
	ActionModified       Action = "modified"
	ActionSkippedWorkout Action = "skipped_workout"
)

// AllActions returns all valid actions.
var AllActions = []Action{ActionAccepted, ActionRejected, ActionModified, ActionSkippedWorkout}

// IsValidAction checks if a string is a valid action.
func IsValidAction(s string) bool {
	for _, a := range AllActions {
		if string(a) == s {
			return true
		}
	}
	return false
}

// Applied reports whether the action results in the adjustment being applied.
func (a Action) Applied() bool {
	return a == ActionAccepted || a == ActionModified
}

// Trend labels the direction of recent readiness.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// RecoveryAdjustmentLog is an immutable snapshot of one athlete decision.
type RecoveryAdjustmentLog struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	UserID    string    `json:"user_id" yaml:"user_id"`
	ScoreID   uuid.UUID `json:"score_id" yaml:"score_id"`
	ScoreDate time.Time `json:"score_date" yaml:"score_date"`

	// Snapshot of the score at decision time
	Category                   Category `json:"category" yaml:"category"`
	OverallScore               int      `json:"overall_score" yaml:"overall_score"`
	SuggestedIntensityModifier float64  `json:"suggested_intensity_modifier" yaml:"suggested_intensity_modifier"`
	SuggestedVolumeModifier    float64  `json:"suggested_volume_modifier" yaml:"suggested_volume_modifier"`

	ActionTaken             Action   `json:"action_taken" yaml:"action_taken"`
	ActualIntensityModifier *float64 `json:"actual_intensity_modifier,omitempty" yaml:"actual_intensity_modifier,omitempty"`
	ActualVolumeModifier    *float64 `json:"actual_volume_modifier,omitempty" yaml:"actual_volume_modifier,omitempty"`
	Notes                   *string  `json:"notes,omitempty" yaml:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewAdjustmentLog snapshots a score for a decision. Modifiers are filled in by the caller.
func NewAdjustmentLog(s *RecoveryScore, action Action, at time.Time) *RecoveryAdjustmentLog {
	return &RecoveryAdjustmentLog{
		ID:                         uuid.New(),
		UserID:                     s.UserID,
		ScoreID:                    s.ID,
		ScoreDate:                  s.Date,
		Category:                   s.Category,
		OverallScore:               s.OverallScore,
		SuggestedIntensityModifier: s.IntensityModifier,
		SuggestedVolumeModifier:    s.VolumeModifier,
		ActionTaken:                action,
		CreatedAt:                  at.UTC(),
	}
}

// WithNotes sets notes on the log.
func (l *RecoveryAdjustmentLog) WithNotes(notes string) *RecoveryAdjustmentLog {
	l.Notes = &notes
	return l
}

// MaxModifier bounds an athlete-chosen modifier to (0, MaxModifier].
const MaxModifier = 2.0

// ValidateModifier checks an actual intensity or volume modifier.
func ValidateModifier(field string, v float64) error {
	if math.IsNaN(v) || v <= 0 || v > MaxModifier {
		return Invalid(field, "must be greater than 0 and at most %v, got %v", MaxModifier, v)
	}
	return nil
}

// Validate checks a log before it is appended.
func (l *RecoveryAdjustmentLog) Validate() error {
	if strings.TrimSpace(l.UserID) == "" {
		return Invalid("user_id", "required")
	}
	if l.ScoreID == uuid.Nil {
		return Invalid("score_id", "required")
	}
	if !IsValidAction(string(l.ActionTaken)) {
		return Invalid("action_taken", "unknown action %q", l.ActionTaken)
	}
	if l.ActionTaken == ActionModified && (l.ActualIntensityModifier == nil || l.ActualVolumeModifier == nil) {
		return Invalid("actual_modifiers", "both intensity and volume are required for %s", ActionModified)
	}
	if l.ActualIntensityModifier != nil {
		if err := ValidateModifier("actual_intensity_modifier", *l.ActualIntensityModifier); err != nil {
			return err
		}
	}
	if l.ActualVolumeModifier != nil {
		if err := ValidateModifier("actual_volume_modifier", *l.ActualVolumeModifier); err != nil {
			return err
		}
	}
	return nil
}
