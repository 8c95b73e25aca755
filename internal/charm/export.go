// ABOUTME: Full snapshot of the Charm KV store for export and migration.
// ABOUTME: Satisfies the storage.Repository contract.
package charm

import (
	"context"
	"sort"

	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/storage"
)

var _ storage.Repository = (*Client)(nil)

// GetAllData retrieves all data for export.
func (c *Client) GetAllData(_ context.Context) (*storage.ExportData, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scoreEntries, err := c.scanPrefix(ScorePrefix)
	if err != nil {
		return nil, models.WrapStore("list scores", err)
	}
	scores, err := decodeAll(scoreEntries, func(s *models.RecoveryScore) string { return s.UserID }, "")
	if err != nil {
		return nil, models.WrapStore("list scores", err)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].UserID != scores[j].UserID {
			return scores[i].UserID < scores[j].UserID
		}
		return scores[i].Date.After(scores[j].Date)
	})

	pointEntries, err := c.scanPrefix(DataPointPrefix)
	if err != nil {
		return nil, models.WrapStore("list data points", err)
	}
	points, err := decodeAll(pointEntries, func(p *models.RecoveryDataPoint) string { return p.UserID }, "")
	if err != nil {
		return nil, models.WrapStore("list data points", err)
	}

	logEntries, err := c.scanPrefix(AdjustmentPrefix)
	if err != nil {
		return nil, models.WrapStore("list adjustment logs", err)
	}
	logs, err := decodeAll(logEntries, func(l *models.RecoveryAdjustmentLog) string { return l.UserID }, "")
	if err != nil {
		return nil, models.WrapStore("list adjustment logs", err)
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.Before(logs[j].CreatedAt) })

	return storage.NewExportData(scores, points, logs), nil
}
