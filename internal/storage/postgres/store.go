// ABOUTME: PostgreSQL implementation of the recovery Repository using sqlx and lib/pq.
// ABOUTME: Every call runs under the store's query timeout.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// DefaultQueryTimeout bounds each repository call when none is configured.
const DefaultQueryTimeout = 30 * time.Second

// Store implements storage.Repository for PostgreSQL.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// New wraps an open connection. A non-positive timeout uses DefaultQueryTimeout.
func New(db *sqlx.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Open connects to dsn, verifies the connection, and applies the schema.
func Open(ctx context.Context, dsn string, timeout time.Duration) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := New(db, timeout)

	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates tables, indexes, and the append-only trigger if missing.
func (s *Store) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS recovery_data_points (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	date DATE NOT NULL,
	source TEXT NOT NULL,
	hrv_rmssd DOUBLE PRECISION,
	hrv_sdnn DOUBLE PRECISION,
	resting_hr DOUBLE PRECISION,
	avg_hr_awake DOUBLE PRECISION,
	sleep_duration_min DOUBLE PRECISION,
	sleep_efficiency DOUBLE PRECISION,
	deep_sleep_min DOUBLE PRECISION,
	rem_sleep_min DOUBLE PRECISION,
	awakenings INTEGER,
	sleep_quality SMALLINT,
	steps INTEGER,
	active_minutes INTEGER,
	training_load DOUBLE PRECISION,
	energy SMALLINT,
	soreness SMALLINT,
	stress SMALLINT,
	mood SMALLINT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, date, source)
);

CREATE TABLE IF NOT EXISTS recovery_scores (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	date DATE NOT NULL,
	hrv_score SMALLINT,
	sleep_score SMALLINT,
	resting_hr_score SMALLINT,
	subjective_score SMALLINT,
	overall_score SMALLINT NOT NULL CHECK (overall_score BETWEEN 0 AND 100),
	category TEXT NOT NULL,
	intensity_modifier DOUBLE PRECISION NOT NULL,
	volume_modifier DOUBLE PRECISION NOT NULL,
	suggested_action TEXT NOT NULL,
	data_sources JSONB NOT NULL DEFAULT '[]',
	confidence DOUBLE PRECISION NOT NULL CHECK (confidence BETWEEN 0 AND 1),
	user_acknowledged BOOLEAN NOT NULL DEFAULT FALSE,
	acknowledged_at TIMESTAMPTZ,
	adjustment_applied BOOLEAN NOT NULL DEFAULT FALSE,
	adjustment_details JSONB,
	UNIQUE (user_id, date)
);

CREATE TABLE IF NOT EXISTS recovery_adjustment_logs (
	seq BIGSERIAL,
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	score_id UUID NOT NULL,
	score_date DATE NOT NULL,
	category TEXT NOT NULL,
	overall_score SMALLINT NOT NULL,
	suggested_intensity_modifier DOUBLE PRECISION NOT NULL,
	suggested_volume_modifier DOUBLE PRECISION NOT NULL,
	action_taken TEXT NOT NULL,
	actual_intensity_modifier DOUBLE PRECISION,
	actual_volume_modifier DOUBLE PRECISION,
	notes TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE OR REPLACE FUNCTION recovery_adjustment_logs_append_only() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'adjustment logs are append-only';
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS recovery_adjustment_logs_append_only ON recovery_adjustment_logs;
CREATE TRIGGER recovery_adjustment_logs_append_only
	BEFORE UPDATE OR DELETE ON recovery_adjustment_logs
	FOR EACH ROW EXECUTE FUNCTION recovery_adjustment_logs_append_only();

CREATE INDEX IF NOT EXISTS idx_data_points_user_date ON recovery_data_points (user_id, date);
CREATE INDEX IF NOT EXISTS idx_scores_user_date ON recovery_scores (user_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_adjustment_logs_user_created ON recovery_adjustment_logs (user_id, created_at DESC, seq DESC);
`
