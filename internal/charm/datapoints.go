// ABOUTME: RecoveryDataPoint operations for Charm KV storage.
// ABOUTME: One key per (user, date, source); a re-sync replaces the value.
package charm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/harperreed/recovery/internal/models"
)

// UpsertDataPoint replaces the data point for (user_id, date, source).
// The original created_at is kept on replace.
func (c *Client) UpsertDataPoint(_ context.Context, p *models.RecoveryDataPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := dataPointKey(p.UserID, p.Date, p.Source)
	row := *p
	row.Date = models.DateOnly(p.Date)

	data, err := c.get(key)
	if err != nil {
		return models.WrapStore("upsert data point", err)
	}
	if data != nil {
		existing, err := unmarshalJSON[models.RecoveryDataPoint](data)
		if err != nil {
			return models.WrapStore("upsert data point", err)
		}
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	}

	encoded, err := json.Marshal(&row)
	if err != nil {
		return models.WrapStore("upsert data point", err)
	}
	if err := c.put(key, encoded); err != nil {
		return models.WrapStore("upsert data point", err)
	}
	return nil
}

// GetDataPoints returns a user's points with start <= date <= end, oldest first.
func (c *Client) GetDataPoints(_ context.Context, userID string, start, end time.Time) ([]*models.RecoveryDataPoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := c.scanPrefix(userPrefix(DataPointPrefix, userID))
	if err != nil {
		return nil, models.WrapStore("get data points", err)
	}
	all, err := decodeAll(entries, func(p *models.RecoveryDataPoint) string { return p.UserID }, userID)
	if err != nil {
		return nil, models.WrapStore("get data points", err)
	}

	from, to := models.FormatDate(start), models.FormatDate(end)
	var points []*models.RecoveryDataPoint
	for _, p := range all {
		if d := models.FormatDate(p.Date); d >= from && d <= to {
			points = append(points, p)
		}
	}
	return points, nil
}
