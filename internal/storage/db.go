// ABOUTME: SQLite-backed Repository: connection setup, pragmas, and the XDG data directory.
// ABOUTME: Uses modernc.org/sqlite so the binary builds without CGO.
package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var _ Repository = (*DB)(nil)

// connPragmas apply to every pooled connection, not just the first.
var connPragmas = []string{
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// DB is the SQLite Repository.
type DB struct {
	db *sql.DB
}

// Open opens or creates the recovery database at dbPath, creating parent
// directories and the schema as needed. The file is readable by its owner only.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("connect %s: %w", dbPath, err)
	}
	if err := os.Chmod(dbPath, 0600); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	d := newWithConn(conn)
	if err := d.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return d, nil
}

// newWithConn wraps an existing connection without touching its schema.
func newWithConn(conn *sql.DB) *DB {
	return &DB{db: conn}
}

func sqliteDSN(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return path + "?" + q.Encode()
}

// DataDir is $XDG_DATA_HOME/recovery, falling back to ~/.local/share/recovery.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "recovery")
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}
