// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for data points, scores, and append-only adjustment logs.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recovery_data_points (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		source TEXT NOT NULL,
		hrv_rmssd REAL,
		hrv_sdnn REAL,
		resting_hr REAL,
		avg_hr_awake REAL,
		sleep_duration_min REAL,
		sleep_efficiency REAL,
		deep_sleep_min REAL,
		rem_sleep_min REAL,
		awakenings INTEGER,
		sleep_quality INTEGER,
		steps INTEGER,
		active_minutes INTEGER,
		training_load REAL,
		energy INTEGER,
		soreness INTEGER,
		stress INTEGER,
		mood INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (user_id, date, source)
	);

	CREATE TABLE IF NOT EXISTS recovery_scores (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		hrv_score INTEGER,
		sleep_score INTEGER,
		resting_hr_score INTEGER,
		subjective_score INTEGER,
		overall_score INTEGER NOT NULL,
		category TEXT NOT NULL,
		intensity_modifier REAL NOT NULL,
		volume_modifier REAL NOT NULL,
		suggested_action TEXT NOT NULL,
		data_sources TEXT NOT NULL DEFAULT '[]',
		confidence REAL NOT NULL,
		user_acknowledged INTEGER NOT NULL DEFAULT 0,
		acknowledged_at TEXT,
		adjustment_applied INTEGER NOT NULL DEFAULT 0,
		adjustment_details TEXT,
		UNIQUE (user_id, date)
	);

	CREATE TABLE IF NOT EXISTS recovery_adjustment_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		score_id TEXT NOT NULL,
		score_date TEXT NOT NULL,
		category TEXT NOT NULL,
		overall_score INTEGER NOT NULL,
		suggested_intensity_modifier REAL NOT NULL,
		suggested_volume_modifier REAL NOT NULL,
		action_taken TEXT NOT NULL,
		actual_intensity_modifier REAL,
		actual_volume_modifier REAL,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TRIGGER IF NOT EXISTS recovery_adjustment_logs_no_update
	BEFORE UPDATE ON recovery_adjustment_logs
	BEGIN
		SELECT RAISE(ABORT, 'adjustment logs are append-only');
	END;

	CREATE TRIGGER IF NOT EXISTS recovery_adjustment_logs_no_delete
	BEFORE DELETE ON recovery_adjustment_logs
	BEGIN
		SELECT RAISE(ABORT, 'adjustment logs are append-only');
	END;

	CREATE INDEX IF NOT EXISTS idx_data_points_user_date ON recovery_data_points(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_scores_user_date ON recovery_scores(user_id, date DESC);
	CREATE INDEX IF NOT EXISTS idx_adjustment_logs_user_created ON recovery_adjustment_logs(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_adjustment_logs_score ON recovery_adjustment_logs(score_id);
	`

	_, err := d.db.Exec(schema)
	return err
}
