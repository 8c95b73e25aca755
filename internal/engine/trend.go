// ABOUTME: Trend detection over recent scores and decision effectiveness audit.
// ABOUTME: Both are read-only views over the Repository.
package engine

import (
	"context"
	"time"

	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
)

// Trend labels the user's trajectory over the trend window ending today.
// Scores dated after today are ignored.
// ok is false when fewer than three scores exist in the window.
func (e *Engine) Trend(ctx context.Context, userID string) (trend models.Trend, ok bool, err error) {
	if userID == "" {
		return "", false, models.Invalid("user_id", "required")
	}

	today := e.Today()
	since := today.AddDate(0, 0, -(e.trendWindow - 1))
	scores, err := e.repo.GetRecentScores(ctx, userID, since)
	if err != nil {
		return "", false, e.storeFailed("get recent scores", err)
	}

	values := make([]int, 0, len(scores))
	for _, s := range scores {
		if s.Date.After(today) {
			continue
		}
		values = append(values, s.OverallScore)
	}

	trend, ok = scoring.DetectTrend(values)
	e.metrics.ObserveTrend(string(trend))
	return trend, ok, nil
}

// ActionEffect summarizes how scores moved the day after one kind of decision.
type ActionEffect struct {
	Action    models.Action `json:"action"`
	Decisions int           `json:"decisions"`
	// Samples counts decisions whose score day and following day both have scores.
	Samples int `json:"samples"`
	// MeanNextDayDelta is the mean of (next day's overall - decision day's overall); nil without samples.
	MeanNextDayDelta *float64 `json:"mean_next_day_delta,omitempty"`
}

// Effectiveness groups the user's decisions on or after since by action.
// Every action appears in the result, in the order of models.AllActions.
func (e *Engine) Effectiveness(ctx context.Context, userID string, since time.Time) ([]ActionEffect, error) {
	if userID == "" {
		return nil, models.Invalid("user_id", "required")
	}
	since = models.DateOnly(since)

	logs, err := e.repo.GetAdjustmentHistory(ctx, userID, 0)
	if err != nil {
		return nil, e.storeFailed("get adjustment history", err)
	}
	scores, err := e.repo.GetRecentScores(ctx, userID, since)
	if err != nil {
		return nil, e.storeFailed("get recent scores", err)
	}

	overall := make(map[string]int, len(scores))
	for _, s := range scores {
		overall[models.FormatDate(s.Date)] = s.OverallScore
	}

	type acc struct {
		decisions, samples int
		sum                float64
	}
	byAction := make(map[models.Action]*acc, len(models.AllActions))
	for _, a := range models.AllActions {
		byAction[a] = &acc{}
	}

	for _, l := range logs {
		if l.ScoreDate.Before(since) {
			continue
		}
		a, ok := byAction[l.ActionTaken]
		if !ok {
			continue
		}
		a.decisions++

		day, okDay := overall[models.FormatDate(l.ScoreDate)]
		next, okNext := overall[models.FormatDate(l.ScoreDate.AddDate(0, 0, 1))]
		if okDay && okNext {
			a.samples++
			a.sum += float64(next - day)
		}
	}

	effects := make([]ActionEffect, 0, len(models.AllActions))
	for _, action := range models.AllActions {
		a := byAction[action]
		effect := ActionEffect{Action: action, Decisions: a.decisions, Samples: a.samples}
		if a.samples > 0 {
			effect.MeanNextDayDelta = models.Float(a.sum / float64(a.samples))
		}
		effects = append(effects, effect)
	}
	return effects, nil
}
