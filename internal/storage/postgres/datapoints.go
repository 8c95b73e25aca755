// ABOUTME: RecoveryDataPoint operations for PostgreSQL.
// ABOUTME: Conflict key is (user_id, date, source); created_at survives a re-sync.
package postgres

import (
	"context"
	"time"

	"github.com/harperreed/recovery/internal/models"
)

// UpsertDataPoint inserts or replaces the data point for (user_id, date, source).
func (s *Store) UpsertDataPoint(ctx context.Context, p *models.RecoveryDataPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		INSERT INTO recovery_data_points (` + dataPointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (user_id, date, source) DO UPDATE SET
			hrv_rmssd = EXCLUDED.hrv_rmssd,
			hrv_sdnn = EXCLUDED.hrv_sdnn,
			resting_hr = EXCLUDED.resting_hr,
			avg_hr_awake = EXCLUDED.avg_hr_awake,
			sleep_duration_min = EXCLUDED.sleep_duration_min,
			sleep_efficiency = EXCLUDED.sleep_efficiency,
			deep_sleep_min = EXCLUDED.deep_sleep_min,
			rem_sleep_min = EXCLUDED.rem_sleep_min,
			awakenings = EXCLUDED.awakenings,
			sleep_quality = EXCLUDED.sleep_quality,
			steps = EXCLUDED.steps,
			active_minutes = EXCLUDED.active_minutes,
			training_load = EXCLUDED.training_load,
			energy = EXCLUDED.energy,
			soreness = EXCLUDED.soreness,
			stress = EXCLUDED.stress,
			mood = EXCLUDED.mood,
			updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		p.ID.String(), p.UserID, models.FormatDate(p.Date), string(p.Source),
		p.HRVRMSSD, p.HRVSDNN, p.RestingHR, p.AvgHRAwake,
		p.SleepDurationMin, p.SleepEfficiency, p.DeepSleepMin, p.REMSleepMin,
		p.Awakenings, p.SleepQuality, p.Steps, p.ActiveMinutes, p.TrainingLoad,
		p.Energy, p.Soreness, p.Stress, p.Mood,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		return models.WrapStore("upsert data point", err)
	}
	return nil
}

// GetDataPoints returns points with start <= date <= end, oldest first.
func (s *Store) GetDataPoints(ctx context.Context, userID string, start, end time.Time) ([]*models.RecoveryDataPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rows []dataPointRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+dataPointColumns+`
		FROM recovery_data_points
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC, source ASC`,
		userID, models.FormatDate(start), models.FormatDate(end))
	if err != nil {
		return nil, models.WrapStore("get data points", err)
	}
	return dataPointsFromRows(rows)
}

func dataPointsFromRows(rows []dataPointRow) ([]*models.RecoveryDataPoint, error) {
	points := make([]*models.RecoveryDataPoint, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, nil
}
