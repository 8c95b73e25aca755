// ABOUTME: Shared fixtures for storage tests.
// ABOUTME: Opens a throwaway SQLite database and builds scored records.
package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/recovery/internal/models"
	"github.com/harperreed/recovery/internal/scoring"
)

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "recovery-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	dbPath := filepath.Join(tmpDir, "recovery.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	return d
}

// newScore computes a score from an HRV reading so tests can steer the overall value.
func newScore(t *testing.T, userID, date string, rmssd float64) *models.RecoveryScore {
	t.Helper()
	s, err := scoring.Compute(userID, mustDate(t, date), scoring.ScoreInputs{
		HRV:     &scoring.HRVInput{CurrentRMSSD: rmssd, Baseline7DayAvg: 50},
		Sources: []models.Source{models.SourceWhoop},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	return s
}

// newFullScore computes a score with all four signals present.
func newFullScore(t *testing.T, userID, date string) *models.RecoveryScore {
	t.Helper()
	s, err := scoring.Compute(userID, mustDate(t, date), scoring.ScoreInputs{
		HRV:        &scoring.HRVInput{CurrentRMSSD: 55, Baseline7DayAvg: 50},
		Sleep:      &scoring.SleepInput{DurationMin: 450, EfficiencyPct: 88, DeepMin: 80, REMMin: 95},
		RestingHR:  &scoring.RestingHRInput{CurrentHR: 52, BaselineHR: 54},
		Subjective: &scoring.SubjectiveInput{Energy: 4, Soreness: 2, Stress: 2, Mood: 4},
		Sources:    []models.Source{models.SourceOura, models.SourceManual},
	})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	return s
}

func newDataPoint(t *testing.T, userID, date string, source models.Source) *models.RecoveryDataPoint {
	t.Helper()
	p := models.NewDataPoint(userID, mustDate(t, date), source)
	p.HRVRMSSD = models.Float(58.5)
	p.RestingHR = models.Float(51)
	p.SleepDurationMin = models.Float(455)
	p.SleepEfficiency = models.Float(91.5)
	p.Energy = models.Int(4)
	return p
}
