// ABOUTME: Full-database read used by export and backend migration.
// ABOUTME: Returns the shared storage.ExportData snapshot.
package postgres

import (
	"context"

	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/storage"
)

// GetAllData retrieves all data for export.
func (s *Store) GetAllData(ctx context.Context) (*storage.ExportData, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var scoreRows []scoreRow
	if err := s.db.SelectContext(ctx, &scoreRows,
		`SELECT `+scoreColumns+` FROM recovery_scores ORDER BY user_id, date DESC`); err != nil {
		return nil, models.WrapStore("list scores", err)
	}
	scores, err := scoresFromRows(scoreRows)
	if err != nil {
		return nil, err
	}

	var pointRows []dataPointRow
	if err := s.db.SelectContext(ctx, &pointRows,
		`SELECT `+dataPointColumns+` FROM recovery_data_points ORDER BY user_id, date, source`); err != nil {
		return nil, models.WrapStore("list data points", err)
	}
	points, err := dataPointsFromRows(pointRows)
	if err != nil {
		return nil, err
	}

	var logRows []adjustmentRow
	if err := s.db.SelectContext(ctx, &logRows,
		`SELECT `+adjustmentColumns+` FROM recovery_adjustment_logs ORDER BY created_at, seq`); err != nil {
		return nil, models.WrapStore("list adjustment logs", err)
	}
	logs, err := adjustmentsFromRows(logRows)
	if err != nil {
		return nil, err
	}

	return storage.NewExportData(scores, points, logs), nil
}

var _ storage.Repository = (*Store)(nil)
