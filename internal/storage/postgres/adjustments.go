// ABOUTME: RecoveryAdjustmentLog operations for PostgreSQL.
// ABOUTME: Insert-only; a trigger rejects updates and deletes.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
)

// AppendAdjustmentLog inserts a new decision log.
func (s *Store) AppendAdjustmentLog(ctx context.Context, l *models.RecoveryAdjustmentLog) (*models.RecoveryAdjustmentLog, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recovery_adjustment_logs (`+adjustmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		l.ID.String(), l.UserID, l.ScoreID.String(), models.FormatDate(l.ScoreDate),
		string(l.Category), l.OverallScore,
		l.SuggestedIntensityModifier, l.SuggestedVolumeModifier,
		string(l.ActionTaken), l.ActualIntensityModifier, l.ActualVolumeModifier,
		l.Notes, l.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, models.WrapStore("append adjustment log", err)
	}
	return l, nil
}

// GetAdjustmentLog returns nil, nil when the log does not exist.
func (s *Store) GetAdjustmentLog(ctx context.Context, id uuid.UUID) (*models.RecoveryAdjustmentLog, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row adjustmentRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+adjustmentColumns+` FROM recovery_adjustment_logs WHERE id = $1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, models.WrapStore("get adjustment log", err)
	}
	return row.toModel()
}

// GetAdjustmentHistory returns logs newest first; limit <= 0 means all.
func (s *Store) GetAdjustmentHistory(ctx context.Context, userID string, limit int) ([]*models.RecoveryAdjustmentLog, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT ` + adjustmentColumns + `
		FROM recovery_adjustment_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, seq DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []adjustmentRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, models.WrapStore("get adjustment history", err)
	}
	return adjustmentsFromRows(rows)
}

func adjustmentsFromRows(rows []adjustmentRow) ([]*models.RecoveryAdjustmentLog, error) {
	logs := make([]*models.RecoveryAdjustmentLog, 0, len(rows))
	for i := range rows {
		l, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}
