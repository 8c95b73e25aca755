// ABOUTME: Recovery engine: the public operations over scoring and storage.
// ABOUTME: Holds no per-athlete state; every call reads from or writes to the Repository.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/harperreed/recovery/internal/metrics"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
	"github.com/harperreed/recovery/internal/storage"
	"github.com/rs/zerolog"
)

// Defaults used when no option overrides them.
const (
	// DefaultTrendWindowDays is how many days, ending today, Trend reads.
	DefaultTrendWindowDays = 7
	// DefaultBaselineDays is how many prior days feed the HRV and resting HR baselines.
	DefaultBaselineDays = 7
)

// Engine computes, stores, and audits daily recovery scores.
type Engine struct {
	repo         storage.Repository
	log          zerolog.Logger
	metrics      *metrics.Collector
	now          func() time.Time
	trendWindow  int
	baselineDays int
	policy       models.ConflictPolicy
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records operations on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTrendWindow sets how many days of scores Trend reads.
func WithTrendWindow(days int) Option {
	return func(e *Engine) {
		if days >= scoring.MinTrendScores {
			e.trendWindow = days
		}
	}
}

// WithBaselineDays sets how many prior days feed the HRV and resting HR baselines.
func WithBaselineDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.baselineDays = days
		}
	}
}

// WithConflictPolicy sets which score survives a second write for the same day.
func WithConflictPolicy(p models.ConflictPolicy) Option {
	return func(e *Engine) {
		if models.IsValidConflictPolicy(string(p)) {
			e.policy = p
		}
	}
}

// New creates an engine over repo.
func New(repo storage.Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:         repo,
		log:          zerolog.Nop(),
		now:          time.Now,
		trendWindow:  DefaultTrendWindowDays,
		baselineDays: DefaultBaselineDays,
		policy:       models.LastWriteWins,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Repository returns the underlying store.
func (e *Engine) Repository() storage.Repository {
	return e.repo
}

// Today returns the current calendar date.
func (e *Engine) Today() time.Time {
	return models.DateOnly(e.now())
}

// ComputeAndStore scores the inputs and upserts the result for (userID, date).
// A failed write leaves any stored score for that day untouched.
func (e *Engine) ComputeAndStore(ctx context.Context, userID string, date time.Time, in scoring.ScoreInputs) (*models.RecoveryScore, error) {
	defer e.metrics.Timer("compute_and_store")()

	s, err := scoring.Compute(userID, date, in)
	if err != nil {
		return nil, err
	}

	stored, err := e.repo.UpsertScore(ctx, s, e.policy)
	if err != nil {
		return nil, e.storeFailed("upsert score", err)
	}

	if stored.Confidence > s.Confidence {
		e.log.Warn().
			Str("user_id", userID).
			Str("date", models.FormatDate(s.Date)).
			Float64("stored_confidence", stored.Confidence).
			Float64("computed_confidence", s.Confidence).
			Msg("kept existing higher-confidence score")
	}

	e.log.Debug().
		Str("user_id", stored.UserID).
		Str("date", models.FormatDate(stored.Date)).
		Int("overall", stored.OverallScore).
		Str("category", string(stored.Category)).
		Float64("confidence", stored.Confidence).
		Msg("score computed")
	e.metrics.ObserveScore(string(stored.Category), stored.Confidence)

	return stored, nil
}

// GetScore returns the score for a day, or nil when none was computed.
func (e *Engine) GetScore(ctx context.Context, userID string, date time.Time) (*models.RecoveryScore, error) {
	if userID == "" {
		return nil, models.Invalid("user_id", "required")
	}
	s, err := e.repo.GetScore(ctx, userID, models.DateOnly(date))
	if err != nil {
		return nil, e.storeFailed("get score", err)
	}
	return s, nil
}

// ScoreByID resolves a full score ID or unique prefix.
func (e *Engine) ScoreByID(ctx context.Context, idOrPrefix string) (*models.RecoveryScore, error) {
	s, err := e.repo.GetScoreByID(ctx, idOrPrefix)
	if err != nil {
		return nil, e.storeFailed("get score", err)
	}
	return s, nil
}

// Acknowledge marks a score as seen by the athlete.
func (e *Engine) Acknowledge(ctx context.Context, idOrPrefix string) (*models.RecoveryScore, error) {
	defer e.metrics.Timer("acknowledge")()

	s, err := e.ScoreByID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	acked, err := e.repo.MarkAcknowledged(ctx, s.ID, e.now())
	if err != nil {
		return nil, e.storeFailed("acknowledge score", err)
	}
	e.log.Debug().Str("score_id", s.ID.String()).Msg("score acknowledged")
	return acked, nil
}

// storeFailed logs and counts persistence failures and returns err unchanged.
func (e *Engine) storeFailed(op string, err error) error {
	var se *models.StoreError
	if errors.As(err, &se) {
		e.log.Error().Err(err).Str("op", op).Msg("store failure")
		e.metrics.ObserveStoreError(op)
	}
	return err
}
