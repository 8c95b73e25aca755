// ABOUTME: Data migration between recovery storage backends.
// ABOUTME: Copies data points, scores, and adjustment logs from source to destination.

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	DataPoints     int
	Scores         int
	AdjustmentLogs int
}

// MigrateData copies all data from src to dst storage. Scores keep their
// acknowledgment state and logs keep their IDs and timestamps, so running it
// twice does not duplicate decisions.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	data, err := src.GetAllData(ctx)
	if err != nil {
		return nil, fmt.Errorf("read source data: %w", err)
	}

	imported, err := ImportData(ctx, dst, data)
	if err != nil {
		return nil, fmt.Errorf("write destination data: %w", err)
	}

	return &MigrateSummary{
		DataPoints:     imported.DataPoints,
		Scores:         imported.Scores,
		AdjustmentLogs: imported.AdjustmentLogs,
	}, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
