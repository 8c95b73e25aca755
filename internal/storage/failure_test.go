// ABOUTME: Failure-injection tests for the SQLite repository using go-sqlmock.
// ABOUTME: A failed score write must roll back and surface a StoreError.
package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/harperreed/recovery/internal/models"
)

func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return newWithConn(conn), mock
}

func TestUpsertScoreExecFailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	s := newFullScore(t, "athlete-1", "2026-03-01")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO recovery_scores").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	_, err := db.UpsertScore(context.Background(), s, models.LastWriteWins)
	var se *models.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if se.Op != "upsert score" {
		t.Errorf("Op = %q, want upsert score", se.Op)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertScoreCommitFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	s := newFullScore(t, "athlete-1", "2026-03-01")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO recovery_scores").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT (.+) FROM recovery_scores WHERE user_id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "date", "hrv_score", "sleep_score", "resting_hr_score", "subjective_score",
			"overall_score", "category", "intensity_modifier", "volume_modifier", "suggested_action",
			"data_sources", "confidence", "user_acknowledged", "acknowledged_at", "adjustment_applied",
			"adjustment_details",
		}).AddRow(
			s.ID.String(), s.UserID, "2026-03-01", *s.HRVScore, *s.SleepScore, *s.RestingHRScore, *s.SubjectiveScore,
			s.OverallScore, string(s.Category), s.IntensityModifier, s.VolumeModifier, s.SuggestedAction,
			`["manual","oura"]`, s.Confidence, false, nil, false, nil,
		))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	_, err := db.UpsertScore(context.Background(), s, models.LastWriteWins)
	var se *models.StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpsertScoreValidationSkipsDatabase(t *testing.T) {
	db, mock := setupMockDB(t)
	s := newFullScore(t, "athlete-1", "2026-03-01")
	s.OverallScore = 140

	_, err := db.UpsertScore(context.Background(), s, models.LastWriteWins)
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database calls: %v", err)
	}
}

func TestReadFailuresAreStoreErrors(t *testing.T) {
	db, mock := setupMockDB(t)
	ctx := context.Background()
	boom := errors.New("connection reset")

	mock.ExpectQuery("FROM recovery_scores WHERE user_id").WillReturnError(boom)
	_, err := db.GetScore(ctx, "athlete-1", mustDate(t, "2026-03-01"))
	if !errors.Is(err, boom) {
		t.Errorf("GetScore error = %v, want wrapped driver error", err)
	}

	mock.ExpectQuery("FROM recovery_scores").WillReturnError(boom)
	_, err = db.GetRecentScores(ctx, "athlete-1", mustDate(t, "2026-03-01"))
	var se *models.StoreError
	if !errors.As(err, &se) {
		t.Errorf("GetRecentScores error = %v, want StoreError", err)
	}

	mock.ExpectQuery("FROM recovery_adjustment_logs").WillReturnError(boom)
	_, err = db.GetAdjustmentHistory(ctx, "athlete-1", 10)
	if !errors.As(err, &se) {
		t.Errorf("GetAdjustmentHistory error = %v, want StoreError", err)
	}

	mock.ExpectExec("INSERT INTO recovery_data_points").WillReturnError(boom)
	err = db.UpsertDataPoint(ctx, newDataPoint(t, "athlete-1", "2026-03-01", models.SourceOura))
	if !errors.As(err, &se) {
		t.Errorf("UpsertDataPoint error = %v, want StoreError", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
