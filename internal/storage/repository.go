// ABOUTME: Repository interface for recovery data storage.
// ABOUTME: The data-access contract the engine depends on, shared by every backend.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/recovery/internal/models"
)

// Repository defines the storage interface for recovery data.
// Implementations never retry; callers bound calls with context deadlines.
type Repository interface {
	// Score operations

	// GetScore returns nil, nil when no score exists for the day.
	GetScore(ctx context.Context, userID string, date time.Time) (*models.RecoveryScore, error)
	// GetScoreByID resolves a full ID or unique prefix; a miss is a *models.NotFoundError.
	GetScoreByID(ctx context.Context, idOrPrefix string) (*models.RecoveryScore, error)
	// UpsertScore writes on (user_id, date) and returns the row now stored.
	UpsertScore(ctx context.Context, s *models.RecoveryScore, policy models.ConflictPolicy) (*models.RecoveryScore, error)
	// GetRecentScores returns scores on or after since, most recent first.
	GetRecentScores(ctx context.Context, userID string, since time.Time) ([]*models.RecoveryScore, error)
	MarkAcknowledged(ctx context.Context, id uuid.UUID, at time.Time) (*models.RecoveryScore, error)
	SetAdjustmentApplied(ctx context.Context, id uuid.UUID, applied bool, details *models.AdjustmentDetails) (*models.RecoveryScore, error)

	// Data point operations
	UpsertDataPoint(ctx context.Context, p *models.RecoveryDataPoint) error
	// GetDataPoints returns points with start <= date <= end, oldest first.
	GetDataPoints(ctx context.Context, userID string, start, end time.Time) ([]*models.RecoveryDataPoint, error)

	// Adjustment log operations
	AppendAdjustmentLog(ctx context.Context, l *models.RecoveryAdjustmentLog) (*models.RecoveryAdjustmentLog, error)
	// GetAdjustmentLog returns nil, nil when the log does not exist.
	GetAdjustmentLog(ctx context.Context, id uuid.UUID) (*models.RecoveryAdjustmentLog, error)
	// GetAdjustmentHistory returns logs newest first; limit <= 0 means all.
	GetAdjustmentHistory(ctx context.Context, userID string, limit int) ([]*models.RecoveryAdjustmentLog, error)

	// Export
	GetAllData(ctx context.Context) (*ExportData, error)

	// Lifecycle
	Close() error
}
