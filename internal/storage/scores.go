// ABOUTME: RecoveryScore operations for SQLite storage.
// ABOUTME: Upserts run in a transaction so a failed write leaves the prior row intact.
package storage

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

const scoreColumns = `id, user_id, date, hrv_score, sleep_score, resting_hr_score, subjective_score,
	overall_score, category, intensity_modifier, volume_modifier, suggested_action, data_sources,
	confidence, user_acknowledged, acknowledged_at, adjustment_applied, adjustment_details`

const upsertScoreSQL = `
	INSERT INTO recovery_scores (` + scoreColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, date) DO UPDATE SET
		id = excluded.id,
		hrv_score = excluded.hrv_score,
		sleep_score = excluded.sleep_score,
		resting_hr_score = excluded.resting_hr_score,
		subjective_score = excluded.subjective_score,
		overall_score = excluded.overall_score,
		category = excluded.category,
		intensity_modifier = excluded.intensity_modifier,
		volume_modifier = excluded.volume_modifier,
		suggested_action = excluded.suggested_action,
		data_sources = excluded.data_sources,
		confidence = excluded.confidence,
		user_acknowledged = excluded.user_acknowledged,
		acknowledged_at = excluded.acknowledged_at,
		adjustment_applied = excluded.adjustment_applied,
		adjustment_details = excluded.adjustment_details`

// keepHigherConfidence restricts the update so a stored row with higher confidence survives.
const keepHigherConfidence = `
	WHERE excluded.confidence >= recovery_scores.confidence`

// GetScore retrieves the score for a user on a date.
func (d *DB) GetScore(ctx context.Context, userID string, date time.Time) (*models.RecoveryScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM recovery_scores WHERE user_id = ? AND date = ?`
	s, err := scanScore(d.db.QueryRowContext(ctx, query, userID, models.FormatDate(date)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.WrapStore("get score", err)
	}
	return s, nil
}

// GetScoreByID retrieves a score by ID or ID prefix.
func (d *DB) GetScoreByID(ctx context.Context, idOrPrefix string) (*models.RecoveryScore, error) {
	id, err := d.resolveScoreID(ctx, idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + scoreColumns + ` FROM recovery_scores WHERE id = ?`
	s, err := scanScore(d.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: "score", ID: idOrPrefix}
	}
	if err != nil {
		return nil, models.WrapStore("get score", err)
	}
	return s, nil
}

// UpsertScore inserts or replaces the score for (user_id, date) and returns
// the stored row. Under HighestConfidence an existing row with higher
// confidence is kept and returned unchanged.
func (d *DB) UpsertScore(ctx context.Context, s *models.RecoveryScore, policy models.ConflictPolicy) (*models.RecoveryScore, error) {
	if err := scoring.CheckScore(s); err != nil {
		return nil, err
	}

	args, err := scoreArgs(s)
	if err != nil {
		return nil, err
	}

	query := upsertScoreSQL
	if policy == models.HighestConfidence {
		query += keepHigherConfidence
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, models.WrapStore("upsert score", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, models.WrapStore("upsert score", err)
	}

	stored, err := scanScore(tx.QueryRowContext(ctx,
		`SELECT `+scoreColumns+` FROM recovery_scores WHERE user_id = ? AND date = ?`,
		s.UserID, models.FormatDate(s.Date)))
	if err != nil {
		return nil, models.WrapStore("upsert score", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, models.WrapStore("upsert score", err)
	}
	return stored, nil
}

// GetRecentScores returns a user's scores on or after since, most recent first.
func (d *DB) GetRecentScores(ctx context.Context, userID string, since time.Time) ([]*models.RecoveryScore, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM recovery_scores
		WHERE user_id = ? AND date >= ?
		ORDER BY date DESC
	`
	rows, err := d.db.QueryContext(ctx, query, userID, models.FormatDate(since))
	if err != nil {
		return nil, models.WrapStore("get recent scores", err)
	}
	defer rows.Close()

	scores, err := scanScores(rows)
	if err != nil {
		return nil, models.WrapStore("get recent scores", err)
	}
	return scores, nil
}

// MarkAcknowledged flags a score as seen. The first acknowledgment time is kept.
func (d *DB) MarkAcknowledged(ctx context.Context, id uuid.UUID, at time.Time) (*models.RecoveryScore, error) {
	result, err := d.db.ExecContext(ctx, `
		UPDATE recovery_scores
		SET user_acknowledged = 1, acknowledged_at = COALESCE(acknowledged_at, ?)
		WHERE id = ?
	`, models.FormatTimestamp(at), id.String())
	if err != nil {
		return nil, models.WrapStore("acknowledge score", err)
	}
	if err := requireAffected(result, "score", id.String()); err != nil {
		return nil, err
	}
	return d.GetScoreByID(ctx, id.String())
}

// SetAdjustmentApplied records whether the suggested adjustment was applied.
func (d *DB) SetAdjustmentApplied(ctx context.Context, id uuid.UUID, applied bool, details *models.AdjustmentDetails) (*models.RecoveryScore, error) {
	detailsJSON, err := marshalDetails(details)
	if err != nil {
		return nil, err
	}

	result, err := d.db.ExecContext(ctx, `
		UPDATE recovery_scores
		SET adjustment_applied = ?, adjustment_details = ?
		WHERE id = ?
	`, applied, detailsJSON, id.String())
	if err != nil {
		return nil, models.WrapStore("set adjustment applied", err)
	}
	if err := requireAffected(result, "score", id.String()); err != nil {
		return nil, err
	}
	return d.GetScoreByID(ctx, id.String())
}

// resolveScoreID finds the full ID from a prefix.
func (d *DB) resolveScoreID(ctx context.Context, idOrPrefix string) (string, error) {
	// If it looks like a full UUID, use it directly
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}
	if idOrPrefix == "" {
		return "", models.Invalid("id", "required")
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id FROM recovery_scores WHERE id LIKE ? || '%'`, idOrPrefix)
	if err != nil {
		return "", models.WrapStore("resolve score id", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", models.WrapStore("resolve score id", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", models.WrapStore("resolve score id", err)
	}

	if len(matches) == 0 {
		return "", &models.NotFoundError{Kind: "score", ID: idOrPrefix}
	}
	if len(matches) > 1 {
		return "", models.Invalid("id", "ambiguous prefix %s: matches %d scores", idOrPrefix, len(matches))
	}

	return matches[0], nil
}

func requireAffected(result sql.Result, kind, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return models.WrapStore("update "+kind, err)
	}
	if affected == 0 {
		return &models.NotFoundError{Kind: kind, ID: id}
	}
	return nil
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

	var ackAt *string
	if s.AcknowledgedAt != nil {
		v := models.FormatTimestamp(*s.AcknowledgedAt)
		ackAt = &v
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

type rowScanner interface {
	Scan(dest ...any) error
}

// scanScore scans a single row into a RecoveryScore struct.
func scanScore(row rowScanner) (*models.RecoveryScore, error) {
	var s models.RecoveryScore
	var idStr, date, category, sources string
	var hrv, sleep, rhr, subjective sql.NullInt64
	var ackAt, details sql.NullString

	err := row.Scan(&idStr, &s.UserID, &date, &hrv, &sleep, &rhr, &subjective,
		&s.OverallScore, &category, &s.IntensityModifier, &s.VolumeModifier, &s.SuggestedAction,
		&sources, &s.Confidence, &s.UserAcknowledged, &ackAt, &s.AdjustmentApplied, &details)
	if err != nil {
		return nil, err
	}

	if s.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse score id: %w", err)
	}
	if s.Date, err = models.ParseDate(date); err != nil {
		return nil, err
	}
	s.Category = models.Category(category)
	s.HRVScore = nullInt(hrv)
	s.SleepScore = nullInt(sleep)
	s.RestingHRScore = nullInt(rhr)
	s.SubjectiveScore = nullInt(subjective)

	if err := json.Unmarshal([]byte(sources), &s.DataSources); err != nil {
		return nil, fmt.Errorf("unmarshal data sources: %w", err)
	}
	if ackAt.Valid {
		t, err := models.ParseTimestamp(ackAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse acknowledged_at: %w", err)
		}
		s.AcknowledgedAt = &t
	}
	if details.Valid {
		var d models.AdjustmentDetails
		if err := json.Unmarshal([]byte(details.String), &d); err != nil {
			return nil, fmt.Errorf("unmarshal adjustment details: %w", err)
		}
		s.AdjustmentDetails = &d
	}

	return &s, nil
}

// scanScores scans multiple rows into a slice of scores.
func scanScores(rows *sql.Rows) ([]*models.RecoveryScore, error) {
	var scores []*models.RecoveryScore
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
