// Package sqlite is the embedded-database backend of the record store.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

const schemaMedications = `
CREATE TABLE IF NOT EXISTS medications (
    username TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    dosage_amount REAL NOT NULL DEFAULT 0,
    dosage_unit TEXT NOT NULL DEFAULT '',
    frequency TEXT NOT NULL DEFAULT '',
    times TEXT NOT NULL DEFAULT '[]',
    weekly_day TEXT NOT NULL DEFAULT '',
    max_daily_doses INTEGER NOT NULL DEFAULT 0,
    min_interval INTEGER NOT NULL DEFAULT 0,
    start_date TEXT NOT NULL DEFAULT '',
    end_date TEXT NOT NULL DEFAULT '',
    instructions TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT 1,
    missed_doses INTEGER NOT NULL DEFAULT 0,
    total_doses INTEGER NOT NULL DEFAULT 0,
    last_taken TEXT,
    created_at TEXT NOT NULL,
    PRIMARY KEY (username, id)
);
`

const schemaHistory = `
CREATE TABLE IF NOT EXISTS medication_history (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL,
    username TEXT NOT NULL,
    recorded_at TEXT NOT NULL,
    medication_id TEXT NOT NULL,
    medication_name TEXT NOT NULL,
    action TEXT NOT NULL,
    scheduled_time TEXT NOT NULL,
    actual_time TEXT NOT NULL,
    dosage TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT ''
);
`

const schemaHistoryIndex = `
CREATE INDEX IF NOT EXISTS idx_medication_history_user ON medication_history (username, seq);
`

const schemaAppointments = `
CREATE TABLE IF NOT EXISTS appointments (
    username TEXT NOT NULL,
    id TEXT NOT NULL,
    doctor_name TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    at TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    notes TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    source_id TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (username, id)
);
`

const schemaSettings = `
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    alarm_duration INTEGER NOT NULL,
    snooze_interval INTEGER NOT NULL,
    max_snoozes INTEGER NOT NULL,
    notifications_enabled BOOLEAN NOT NULL
);
`

// InitDB opens or creates the database file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir %q: %w", dir, err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// one writer; the alarm engine and the CLI never need more
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaMedications,
		schemaHistory,
		schemaHistoryIndex,
		schemaAppointments,
		schemaSettings,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
