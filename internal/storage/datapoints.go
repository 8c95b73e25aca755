// ABOUTME: RecoveryDataPoint operations for SQLite storage.
// ABOUTME: One row per (user, date, source); a re-sync replaces the row.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
)

const dataPointColumns = `id, user_id, date, source, hrv_rmssd, hrv_sdnn, resting_hr, avg_hr_awake,
	sleep_duration_min, sleep_efficiency, deep_sleep_min, rem_sleep_min, awakenings, sleep_quality,
	steps, active_minutes, training_load, energy, soreness, stress, mood, created_at, updated_at`

// UpsertDataPoint inserts or replaces the data point for (user_id, date, source).
// The original created_at is kept on replace.
func (d *DB) UpsertDataPoint(ctx context.Context, p *models.RecoveryDataPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO recovery_data_points (` + dataPointColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date, source) DO UPDATE SET
			hrv_rmssd = excluded.hrv_rmssd,
			hrv_sdnn = excluded.hrv_sdnn,
			resting_hr = excluded.resting_hr,
			avg_hr_awake = excluded.avg_hr_awake,
			sleep_duration_min = excluded.sleep_duration_min,
			sleep_efficiency = excluded.sleep_efficiency,
			deep_sleep_min = excluded.deep_sleep_min,
			rem_sleep_min = excluded.rem_sleep_min,
			awakenings = excluded.awakenings,
			sleep_quality = excluded.sleep_quality,
			steps = excluded.steps,
			active_minutes = excluded.active_minutes,
			training_load = excluded.training_load,
			energy = excluded.energy,
			soreness = excluded.soreness,
			stress = excluded.stress,
			mood = excluded.mood,
			updated_at = excluded.updated_at
	`
	_, err := d.db.ExecContext(ctx, query,
		p.ID.String(),
		p.UserID,
		models.FormatDate(p.Date),
		string(p.Source),
		p.HRVRMSSD,
		p.HRVSDNN,
		p.RestingHR,
		p.AvgHRAwake,
		p.SleepDurationMin,
		p.SleepEfficiency,
		p.DeepSleepMin,
		p.REMSleepMin,
		p.Awakenings,
		p.SleepQuality,
		p.Steps,
		p.ActiveMinutes,
		p.TrainingLoad,
		p.Energy,
		p.Soreness,
		p.Stress,
		p.Mood,
		models.FormatTimestamp(p.CreatedAt),
		models.FormatTimestamp(p.UpdatedAt),
	)
	if err != nil {
		return models.WrapStore("upsert data point", err)
	}
	return nil
}

// GetDataPoints returns a user's data points with start <= date <= end, oldest first.
func (d *DB) GetDataPoints(ctx context.Context, userID string, start, end time.Time) ([]*models.RecoveryDataPoint, error) {
	query := `
		SELECT ` + dataPointColumns + `
		FROM recovery_data_points
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, source ASC
	`
	rows, err := d.db.QueryContext(ctx, query, userID, models.FormatDate(start), models.FormatDate(end))
	if err != nil {
		return nil, models.WrapStore("get data points", err)
	}
	defer rows.Close()

	points, err := scanDataPoints(rows)
	if err != nil {
		return nil, models.WrapStore("get data points", err)
	}
	return points, nil
}

func (d *DB) listDataPoints(ctx context.Context) ([]*models.RecoveryDataPoint, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT `+dataPointColumns+`
		FROM recovery_data_points
		ORDER BY user_id, date, source
	`)
	if err != nil {
		return nil, models.WrapStore("list data points", err)
	}
	defer rows.Close()
	return scanDataPoints(rows)
}

// scanDataPoints scans multiple rows into a slice of data points.
func scanDataPoints(rows *sql.Rows) ([]*models.RecoveryDataPoint, error) {
	var points []*models.RecoveryDataPoint

	for rows.Next() {
		var p models.RecoveryDataPoint
		var idStr, date, source, createdAt, updatedAt string
		var rmssd, sdnn, rhr, avgHR, duration, efficiency, deep, rem, load sql.NullFloat64
		var awakenings, quality, steps, active, energy, soreness, stress, mood sql.NullInt64

		err := rows.Scan(&idStr, &p.UserID, &date, &source, &rmssd, &sdnn, &rhr, &avgHR,
			&duration, &efficiency, &deep, &rem, &awakenings, &quality,
			&steps, &active, &load, &energy, &soreness, &stress, &mood, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan data point: %w", err)
		}

		if p.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("parse data point id: %w", err)
		}
		if p.Date, err = models.ParseDate(date); err != nil {
			return nil, err
		}
		p.Source = models.Source(source)
		p.HRVRMSSD = nullFloat(rmssd)
		p.HRVSDNN = nullFloat(sdnn)
		p.RestingHR = nullFloat(rhr)
		p.AvgHRAwake = nullFloat(avgHR)
		p.SleepDurationMin = nullFloat(duration)
		p.SleepEfficiency = nullFloat(efficiency)
		p.DeepSleepMin = nullFloat(deep)
		p.REMSleepMin = nullFloat(rem)
		p.Awakenings = nullInt(awakenings)
		p.SleepQuality = nullInt(quality)
		p.Steps = nullInt(steps)
		p.ActiveMinutes = nullInt(active)
		p.TrainingLoad = nullFloat(load)
		p.Energy = nullInt(energy)
		p.Soreness = nullInt(soreness)
		p.Stress = nullInt(stress)
		p.Mood = nullInt(mood)
		p.CreatedAt, _ = models.ParseTimestamp(createdAt)
		p.UpdatedAt, _ = models.ParseTimestamp(updatedAt)

		points = append(points, &p)
	}

	return points, rows.Err()
}
