// ABOUTME: RecoveryAdjustmentLog operations for SQLite storage.
// ABOUTME: Logs are insert-only; triggers reject updates and deletes.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
)

const adjustmentColumns = `id, user_id, score_id, score_date, category, overall_score,
	suggested_intensity_modifier, suggested_volume_modifier, action_taken,
	actual_intensity_modifier, actual_volume_modifier, notes, created_at`

// AppendAdjustmentLog inserts a new decision log.
func (d *DB) AppendAdjustmentLog(ctx context.Context, l *models.RecoveryAdjustmentLog) (*models.RecoveryAdjustmentLog, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO recovery_adjustment_logs (` + adjustmentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.ExecContext(ctx, query,
		l.ID.String(),
		l.UserID,
		l.ScoreID.String(),
		models.FormatDate(l.ScoreDate),
		string(l.Category),
		l.OverallScore,
		l.SuggestedIntensityModifier,
		l.SuggestedVolumeModifier,
		string(l.ActionTaken),
		l.ActualIntensityModifier,
		l.ActualVolumeModifier,
		l.Notes,
		models.FormatTimestamp(l.CreatedAt),
	)
	if err != nil {
		return nil, models.WrapStore("append adjustment log", err)
	}
	return l, nil
}

// GetAdjustmentLog retrieves a log by ID.
func (d *DB) GetAdjustmentLog(ctx context.Context, id uuid.UUID) (*models.RecoveryAdjustmentLog, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+adjustmentColumns+` FROM recovery_adjustment_logs WHERE id = ?`, id.String())
	if err != nil {
		return nil, models.WrapStore("get adjustment log", err)
	}
	defer rows.Close()

	logs, err := scanAdjustmentLogs(rows)
	if err != nil {
		return nil, models.WrapStore("get adjustment log", err)
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return logs[0], nil
}

// GetAdjustmentHistory returns a user's decision logs, newest first.
func (d *DB) GetAdjustmentHistory(ctx context.Context, userID string, limit int) ([]*models.RecoveryAdjustmentLog, error) {
	query := `
		SELECT ` + adjustmentColumns + `
		FROM recovery_adjustment_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.WrapStore("get adjustment history", err)
	}
	defer rows.Close()

	logs, err := scanAdjustmentLogs(rows)
	if err != nil {
		return nil, models.WrapStore("get adjustment history", err)
	}
	return logs, nil
}

func (d *DB) listAdjustmentLogs(ctx context.Context) ([]*models.RecoveryAdjustmentLog, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+adjustmentColumns+`
		FROM recovery_adjustment_logs
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, models.WrapStore("list adjustment logs", err)
	}
	defer rows.Close()
	return scanAdjustmentLogs(rows)
}

// scanAdjustmentLogs scans multiple rows into a slice of logs.
func scanAdjustmentLogs(rows *sql.Rows) ([]*models.RecoveryAdjustmentLog, error) {
	var logs []*models.RecoveryAdjustmentLog

	for rows.Next() {
		var l models.RecoveryAdjustmentLog
		var idStr, scoreID, scoreDate, category, action, createdAt string
		var actualIntensity, actualVolume sql.NullFloat64
		var notes sql.NullString

		err := rows.Scan(&idStr, &l.UserID, &scoreID, &scoreDate, &category, &l.OverallScore,
			&l.SuggestedIntensityModifier, &l.SuggestedVolumeModifier, &action,
			&actualIntensity, &actualVolume, &notes, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment log: %w", err)
		}

		if l.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse adjustment log id: %w", err)
		}
		if l.ScoreID, err = uuid.Parse(scoreID); err != nil {
			return nil, fmt.Errorf("parse score id: %w", err)
		}
		if l.ScoreDate, err = models.ParseDate(scoreDate); err != nil {
			return nil, err
		}
		if l.CreatedAt, err = models.ParseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		l.Category = models.Category(category)
		l.ActionTaken = models.Action(action)
		l.ActualIntensityModifier = nullFloat(actualIntensity)
		l.ActualVolumeModifier = nullFloat(actualVolume)
		l.Notes = nullString(notes)

		logs = append(logs, &l)
	}

	return logs, rows.Err()
}
