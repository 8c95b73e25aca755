// ABOUTME: RecoveryAdjustmentLog operations for Charm KV storage.
// ABOUTME: Logs are written once under a time-ordered key and never rewritten.
package charm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
)

// AppendAdjustmentLog stores a new decision log. Reusing a log ID is an error.
func (c *Client) AppendAdjustmentLog(_ context.Context, l *models.RecoveryAdjustmentLog) (*models.RecoveryAdjustmentLog, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.findAdjustmentLog(l.ID)
	if err != nil {
		return nil, models.WrapStore("append adjustment log", err)
	}
	if existing != nil {
		return nil, models.WrapStore("append adjustment log",
			fmt.Errorf("adjustment log %s already exists", l.ID))
	}

	data, err := json.Marshal(l)
	if err != nil {
		return nil, models.WrapStore("append adjustment log", err)
	}
	if err := c.put(adjustmentKey(l), data); err != nil {
		return nil, models.WrapStore("append adjustment log", err)
	}
	return l, nil
}

// GetAdjustmentLog retrieves a log by ID.
func (c *Client) GetAdjustmentLog(_ context.Context, id uuid.UUID) (*models.RecoveryAdjustmentLog, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	l, err := c.findAdjustmentLog(id)
	if err != nil {
		return nil, models.WrapStore("get adjustment log", err)
	}
	return l, nil
}

// GetAdjustmentHistory returns a user's decision logs, newest first.
func (c *Client) GetAdjustmentHistory(_ context.Context, userID string, limit int) ([]*models.RecoveryAdjustmentLog, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := c.scanPrefix(userPrefix(AdjustmentPrefix, userID))
	if err != nil {
		return nil, models.WrapStore("get adjustment history", err)
	}
	all, err := decodeAll(entries, func(l *models.RecoveryAdjustmentLog) string { return l.UserID }, userID)
	if err != nil {
		return nil, models.WrapStore("get adjustment history", err)
	}

	var logs []*models.RecoveryAdjustmentLog
	for i := len(all) - 1; i >= 0; i-- {
		logs = append(logs, all[i])
		if limit > 0 && len(logs) == limit {
			break
		}
	}
	return logs, nil
}

// findAdjustmentLog locates a log by the ID suffix of its key. Callers hold the lock.
func (c *Client) findAdjustmentLog(id uuid.UUID) (*models.RecoveryAdjustmentLog, error) {
	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	suffix := ":" + id.String()
	for _, key := range keys {
		k := string(key)
		if !strings.HasPrefix(k, AdjustmentPrefix) || !strings.HasSuffix(k, suffix) {
			continue
		}
		data, err := c.get(k)
		if err != nil || data == nil {
			return nil, err
		}
		return unmarshalJSON[models.RecoveryAdjustmentLog](data)
	}
	return nil, nil
}
