// ABOUTME: RecoveryScore operations for Charm KV storage.
// ABOUTME: One key per (user, date); the write lock makes the conflict check atomic.
package charm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
)

// GetScore retrieves the score for a user on a date.
func (c *Client) GetScore(_ context.Context, userID string, date time.Time) (*models.RecoveryScore, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, err := c.loadScore(scoreKey(userID, date))
	if err != nil {
		return nil, models.WrapStore("get score", err)
	}
	return s, nil
}

// GetScoreByID retrieves a score by ID or ID prefix.
func (c *Client) GetScoreByID(_ context.Context, idOrPrefix string) (*models.RecoveryScore, error) {
	if idOrPrefix == "" {
		return nil, models.Invalid("id", "required")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches, err := c.findScores(func(id string) bool { return hasIDPrefix(id, idOrPrefix) })
	if err != nil {
		return nil, models.WrapStore("get score", err)
	}
	if len(matches) == 0 {
		return nil, &models.NotFoundError{Kind: "score", ID: idOrPrefix}
	}
	if len(matches) > 1 {
		return nil, models.Invalid("id", "ambiguous prefix %s: matches %d scores", idOrPrefix, len(matches))
	}
	return matches[0], nil
}

// UpsertScore replaces the score for (user_id, date) and returns the stored value.
// Under HighestConfidence an existing score with higher confidence is kept.
func (c *Client) UpsertScore(_ context.Context, s *models.RecoveryScore, policy models.ConflictPolicy) (*models.RecoveryScore, error) {
	if err := scoring.CheckScore(s); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := scoreKey(s.UserID, s.Date)
	if policy == models.HighestConfidence {
		existing, err := c.loadScore(key)
		if err != nil {
			return nil, models.WrapStore("upsert score", err)
		}
		if existing != nil && existing.Confidence > s.Confidence {
			return existing, nil
		}
	}

	stored, err := c.storeScore(key, s)
	if err != nil {
		return nil, models.WrapStore("upsert score", err)
	}
	return stored, nil
}

// GetRecentScores returns a user's scores on or after since, most recent first.
func (c *Client) GetRecentScores(_ context.Context, userID string, since time.Time) ([]*models.RecoveryScore, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, err := c.scanPrefix(userPrefix(ScorePrefix, userID))
	if err != nil {
		return nil, models.WrapStore("get recent scores", err)
	}
	all, err := decodeAll(entries, func(s *models.RecoveryScore) string { return s.UserID }, userID)
	if err != nil {
		return nil, models.WrapStore("get recent scores", err)
	}

	cutoff := models.FormatDate(since)
	var scores []*models.RecoveryScore
	for i := len(all) - 1; i >= 0; i-- {
		if models.FormatDate(all[i].Date) >= cutoff {
			scores = append(scores, all[i])
		}
	}
	return scores, nil
}

// MarkAcknowledged flags a score as seen. The first acknowledgment time is kept.
func (c *Client) MarkAcknowledged(_ context.Context, id uuid.UUID, at time.Time) (*models.RecoveryScore, error) {
	return c.updateScore("acknowledge score", id, func(s *models.RecoveryScore) {
		s.UserAcknowledged = true
		if s.AcknowledgedAt == nil {
			t := at.UTC()
			s.AcknowledgedAt = &t
		}
	})
}

// SetAdjustmentApplied records whether the suggested adjustment was applied.
func (c *Client) SetAdjustmentApplied(_ context.Context, id uuid.UUID, applied bool, details *models.AdjustmentDetails) (*models.RecoveryScore, error) {
	return c.updateScore("set adjustment applied", id, func(s *models.RecoveryScore) {
		s.AdjustmentApplied = applied
		s.AdjustmentDetails = details
	})
}

func (c *Client) updateScore(op string, id uuid.UUID, mutate func(*models.RecoveryScore)) (*models.RecoveryScore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	matches, err := c.findScores(func(candidate string) bool { return candidate == id.String() })
	if err != nil {
		return nil, models.WrapStore(op, err)
	}
	if len(matches) == 0 {
		return nil, &models.NotFoundError{Kind: "score", ID: id.String()}
	}

	s := matches[0]
	mutate(s)
	stored, err := c.storeScore(scoreKey(s.UserID, s.Date), s)
	if err != nil {
		return nil, models.WrapStore(op, err)
	}
	return stored, nil
}

// findScores decodes every score whose ID satisfies match. Callers hold the lock.
func (c *Client) findScores(match func(id string) bool) ([]*models.RecoveryScore, error) {
	entries, err := c.scanPrefix(ScorePrefix)
	if err != nil {
		return nil, err
	}
	all, err := decodeAll(entries, func(s *models.RecoveryScore) string { return s.UserID }, "")
	if err != nil {
		return nil, err
	}

	var matches []*models.RecoveryScore
	for _, s := range all {
		if match(s.ID.String()) {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

func (c *Client) loadScore(key string) (*models.RecoveryScore, error) {
	data, err := c.get(key)
	if err != nil || data == nil {
		return nil, err
	}
	return unmarshalJSON[models.RecoveryScore](data)
}

// storeScore writes s and returns the decoded copy of what was written.
func (c *Client) storeScore(key string, s *models.RecoveryScore) (*models.RecoveryScore, error) {
	row := *s
	if row.DataSources == nil {
		row.DataSources = []models.Source{}
	}
	data, err := json.Marshal(&row)
	if err != nil {
		return nil, err
	}
	if err := c.put(key, data); err != nil {
		return nil, err
	}
	return unmarshalJSON[models.RecoveryScore](data)
}
