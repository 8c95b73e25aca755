// ABOUTME: Decision logging: what the athlete did with a recommendation.
// ABOUTME: Every decision appends a new log; the score's flags follow the latest one.
package engine

import (
	"context"

	"github.com/harperreed/recovery/internal/models"
)

// Modifiers are the intensity and volume factors an athlete actually used.
type Modifiers struct {
	Intensity float64 `json:"intensity"`
	Volume    float64 `json:"volume"`
}

// LogDecision appends the athlete's decision about a score. Accepted decisions
// record the suggested modifiers; modified decisions require actual; rejected
// and skipped decisions record none. The score's adjustment state is updated
// and the score acknowledged before the log is appended.
func (e *Engine) LogDecision(ctx context.Context, idOrPrefix string, action models.Action, actual *Modifiers, notes string) (*models.RecoveryAdjustmentLog, error) {
	defer e.metrics.Timer("log_decision")()

	if !models.IsValidAction(string(action)) {
		return nil, models.Invalid("action_taken", "unknown action %q", action)
	}
	if action == models.ActionModified && actual == nil {
		return nil, models.Invalid("actual_modifiers", "both intensity and volume are required for %s", models.ActionModified)
	}
	if action != models.ActionModified && actual != nil {
		return nil, models.Invalid("actual_modifiers", "only allowed for %s, got %s", models.ActionModified, action)
	}

	s, err := e.ScoreByID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	now := e.now()
	l := models.NewAdjustmentLog(s, action, now)
	switch action {
	case models.ActionAccepted:
		l.ActualIntensityModifier = models.Float(s.IntensityModifier)
		l.ActualVolumeModifier = models.Float(s.VolumeModifier)
	case models.ActionModified:
		l.ActualIntensityModifier = models.Float(actual.Intensity)
		l.ActualVolumeModifier = models.Float(actual.Volume)
	}
	if notes != "" {
		l.WithNotes(notes)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}

	// Flag updates are idempotent and run first, so a failure before the
	// append leaves no log behind and a retry records the decision once.
	var details *models.AdjustmentDetails
	if action.Applied() {
		details = &models.AdjustmentDetails{
			Action:            action,
			IntensityModifier: *l.ActualIntensityModifier,
			VolumeModifier:    *l.ActualVolumeModifier,
		}
	}
	if _, err := e.repo.SetAdjustmentApplied(ctx, s.ID, action.Applied(), details); err != nil {
		return nil, e.storeFailed("set adjustment applied", err)
	}
	if !s.UserAcknowledged {
		if _, err := e.repo.MarkAcknowledged(ctx, s.ID, now); err != nil {
			return nil, e.storeFailed("acknowledge score", err)
		}
	}

	logged, err := e.repo.AppendAdjustmentLog(ctx, l)
	if err != nil {
		return nil, e.storeFailed("append adjustment log", err)
	}

	e.log.Debug().
		Str("score_id", s.ID.String()).
		Str("action", string(action)).
		Msg("decision logged")
	e.metrics.ObserveDecision(string(action))

	return logged, nil
}

// History returns a user's decision logs, newest first; limit <= 0 means all.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]*models.RecoveryAdjustmentLog, error) {
	if userID == "" {
		return nil, models.Invalid("user_id", "required")
	}
	logs, err := e.repo.GetAdjustmentHistory(ctx, userID, limit)
	if err != nil {
		return nil, e.storeFailed("get adjustment history", err)
	}
	return logs, nil
}
