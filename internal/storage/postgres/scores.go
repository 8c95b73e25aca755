// ABOUTME: RecoveryScore operations for PostgreSQL.
// ABOUTME: Upserts use ON CONFLICT (user_id, date) inside a transaction.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
)

const upsertScoreSQL = `
	INSERT INTO recovery_scores (` + scoreColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (user_id, date) DO UPDATE SET
		id = EXCLUDED.id,
		hrv_score = EXCLUDED.hrv_score,
		sleep_score = EXCLUDED.sleep_score,
		resting_hr_score = EXCLUDED.resting_hr_score,
		subjective_score = EXCLUDED.subjective_score,
		overall_score = EXCLUDED.overall_score,
		category = EXCLUDED.category,
		intensity_modifier = EXCLUDED.intensity_modifier,
		volume_modifier = EXCLUDED.volume_modifier,
		suggested_action = EXCLUDED.suggested_action,
		data_sources = EXCLUDED.data_sources,
		confidence = EXCLUDED.confidence,
		user_acknowledged = EXCLUDED.user_acknowledged,
		acknowledged_at = EXCLUDED.acknowledged_at,
		adjustment_applied = EXCLUDED.adjustment_applied,
		adjustment_details = EXCLUDED.adjustment_details`

const keepHigherConfidence = `
	WHERE EXCLUDED.confidence >= recovery_scores.confidence`

// GetScore returns nil, nil when no score exists for the day.
func (s *Store) GetScore(ctx context.Context, userID string, date time.Time) (*models.RecoveryScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row scoreRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+scoreColumns+` FROM recovery_scores WHERE user_id = $1 AND date = $2`,
		userID, models.FormatDate(date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.WrapStore("get score", err)
	}
	return row.toModel()
}

// GetScoreByID resolves a full ID or unique prefix.
func (s *Store) GetScoreByID(ctx context.Context, idOrPrefix string) (*models.RecoveryScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if idOrPrefix == "" {
		return nil, models.Invalid("id", "required")
	}

	var rows []scoreRow
	var err error
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT `+scoreColumns+` FROM recovery_scores WHERE id = $1`, idOrPrefix)
	} else {
		err = s.db.SelectContext(ctx, &rows,
			`SELECT `+scoreColumns+` FROM recovery_scores WHERE id::text LIKE $1 LIMIT 2`, idOrPrefix+"%")
	}
	if err != nil {
		return nil, models.WrapStore("get score", err)
	}

	switch len(rows) {
	case 0:
		return nil, &models.NotFoundError{Kind: "score", ID: idOrPrefix}
	case 1:
		return rows[0].toModel()
	default:
		return nil, models.Invalid("id", "ambiguous prefix %s: matches multiple scores", idOrPrefix)
	}
}

// UpsertScore writes on (user_id, date) and returns the row now stored.
func (s *Store) UpsertScore(ctx context.Context, score *models.RecoveryScore, policy models.ConflictPolicy) (*models.RecoveryScore, error) {
	if err := scoring.CheckScore(score); err != nil {
		return nil, err
	}

	args, err := scoreArgs(score)
	if err != nil {
		return nil, err
	}

	query := upsertScoreSQL
	if policy == models.HighestConfidence {
		query += keepHigherConfidence
	}
	query += `
	RETURNING ` + scoreColumns

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, models.WrapStore("upsert score", err)
	}
	defer func() { _ = tx.Rollback() }()

	var row scoreRow
	err = tx.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		// The conflict guard kept the existing row.
		err = tx.GetContext(ctx, &row,
			`SELECT `+scoreColumns+` FROM recovery_scores WHERE user_id = $1 AND date = $2`,
			score.UserID, models.FormatDate(score.Date))
	}
	if err != nil {
		return nil, models.WrapStore("upsert score", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.WrapStore("upsert score", err)
	}
	return row.toModel()
}

// GetRecentScores returns scores on or after since, most recent first.
func (s *Store) GetRecentScores(ctx context.Context, userID string, since time.Time) ([]*models.RecoveryScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []scoreRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+scoreColumns+`
		FROM recovery_scores
		WHERE user_id = $1 AND date >= $2
		ORDER BY date DESC`,
		userID, models.FormatDate(since))
	if err != nil {
		return nil, models.WrapStore("get recent scores", err)
	}
	return scoresFromRows(rows)
}

// MarkAcknowledged flags a score as seen, keeping the first acknowledgment time.
func (s *Store) MarkAcknowledged(ctx context.Context, id uuid.UUID, at time.Time) (*models.RecoveryScore, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row scoreRow
	err := s.db.GetContext(ctx, &row, `
		UPDATE recovery_scores
		SET user_acknowledged = TRUE, acknowledged_at = COALESCE(acknowledged_at, $1)
		WHERE id = $2
		RETURNING `+scoreColumns,
		at.UTC(), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "score", ID: id.String()}
	}
	if err != nil {
		return nil, models.WrapStore("acknowledge score", err)
	}
	return row.toModel()
}

// SetAdjustmentApplied records whether the suggested adjustment was applied.
func (s *Store) SetAdjustmentApplied(ctx context.Context, id uuid.UUID, applied bool, details *models.AdjustmentDetails) (*models.RecoveryScore, error) {
	detailsJSON, err := marshalDetails(details)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row scoreRow
	err = s.db.GetContext(ctx, &row, `
		UPDATE recovery_scores
		SET adjustment_applied = $1, adjustment_details = $2
		WHERE id = $3
		RETURNING `+scoreColumns,
		applied, detailsJSON, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "score", ID: id.String()}
	}
	if err != nil {
		return nil, models.WrapStore("set adjustment applied", err)
	}
	return row.toModel()
}

func scoreArgs(s *models.RecoveryScore) ([]any, error) {
	sources := s.DataSources
	if sources == nil {
		sources = []models.Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("marshal data sources: %w", err)
	}
	detailsJSON, err := marshalDetails(s.AdjustmentDetails)
	if err != nil {
		return nil, err
	}

	var ackAt *time.Time
	if s.AcknowledgedAt != nil {
		t := s.AcknowledgedAt.UTC()
		ackAt = &t
	}

	return []any{
		s.ID.String(),
		s.UserID,
		models.FormatDate(s.Date),
		s.HRVScore,
		s.SleepScore,
		s.RestingHRScore,
		s.SubjectiveScore,
		s.OverallScore,
		string(s.Category),
		s.IntensityModifier,
		s.VolumeModifier,
		s.SuggestedAction,
		string(sourcesJSON),
		s.Confidence,
		s.UserAcknowledged,
		ackAt,
		s.AdjustmentApplied,
		detailsJSON,
	}, nil
}

func marshalDetails(details *models.AdjustmentDetails) (*string, error) {
	if details == nil {
		return nil, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("marshal adjustment details: %w", err)
	}
	v := string(b)
	return &v, nil
}

func scoresFromRows(rows []scoreRow) ([]*models.RecoveryScore, error) {
	scores := make([]*models.RecoveryScore, 0, len(rows))
	for i := range rows {
		s, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, nil
}
