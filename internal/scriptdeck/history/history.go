// Package history keeps a local record of script executions in SQLite so
// past runs can be inspected after the console output is gone.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"scriptdeck/internal/log"

	// Pure-Go SQLite driver for database/sql (no CGO required)
	_ "modernc.org/sqlite"
)

// DB wraps the run history database
type DB struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// Run is one recorded execution
type Run struct {
	ID       int64
	Started  time.Time
	Category string
	Script   string
	Mode     string // "interactive" or "elevated"
	Status   string
	ExitCode int
	Duration time.Duration
	LogPath  string
}

// New creates a history handle for the database at path
func New(path string) *DB {
	return &DB{path: path}
}

// Init opens the database and creates the schema
func (d *DB) Init() error {
	if err := os.MkdirAll(filepath.Dir(d.path), 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	// WAL mode plus a busy timeout; SQLite works best with a single writer.
	dsn := d.path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping history database: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS run_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started DATETIME NOT NULL,
			category TEXT NOT NULL,
			script TEXT NOT NULL,
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			exit_code INTEGER,
			duration_ms INTEGER,
			log_path TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_history_script ON run_history(script);
		CREATE INDEX IF NOT EXISTS idx_history_started ON run_history(started);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create history schema: %w", err)
	}

	d.mu.Lock()
	d.db = db
	d.mu.Unlock()
	return nil
}

// Record stores one finished run
func (d *DB) Record(run Run) error {
	db := d.conn()
	if db == nil {
		return fmt.Errorf("history database not initialized")
	}

	_, err := db.Exec(
		`INSERT INTO run_history (started, category, script, mode, status, exit_code, duration_ms, log_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Started.Format(time.RFC3339), run.Category, run.Script, run.Mode,
		run.Status, run.ExitCode, run.Duration.Milliseconds(), run.LogPath,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns the latest runs of a script, newest first. An empty script
// name matches every script.
func (d *DB) Recent(script string, limit int) ([]Run, error) {
	db := d.conn()
	if db == nil {
		return nil, fmt.Errorf("history database not initialized")
	}

	query := `SELECT id, started, category, script, mode, status, exit_code, duration_ms, log_path
	          FROM run_history`
	args := []any{}
	if script != "" {
		query += ` WHERE script = ?`
		args = append(args, script)
	}
	query += ` ORDER BY started DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		var durationMs int64
		if err := rows.Scan(&run.ID, &started, &run.Category, &run.Script, &run.Mode,
			&run.Status, &run.ExitCode, &durationMs, &run.LogPath); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Started, _ = time.Parse(time.RFC3339, started)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Prune drops everything but the newest keep rows
func (d *DB) Prune(keep int) error {
	db := d.conn()
	if db == nil {
		return fmt.Errorf("history database not initialized")
	}

	_, err := db.Exec(
		`DELETE FROM run_history WHERE id NOT IN
		 (SELECT id FROM run_history ORDER BY started DESC, id DESC LIMIT ?)`, keep)
	if err != nil {
		return fmt.Errorf("failed to prune run history: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		log.Debug("Closing history database")
		err := d.db.Close()
		d.db = nil
		return err
	}
	return nil
}

func (d *DB) conn() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}
