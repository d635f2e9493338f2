// Package catalog persists run history in SQLite: one row per rendering
// run plus the per-file ingest outcomes, so past runs can be inspected
// through the status API or directly with the sqlite shell.
package catalog

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// Catalog wraps the SQLite database holding run history.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database and ensures the
// schema exists.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[Catalog] initialized: %s", path)
	return c, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// migrate creates the schema when missing.
func (c *Catalog) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			min_lat REAL NOT NULL,
			min_lon REAL NOT NULL,
			max_lat REAL NOT NULL,
			max_lon REAL NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			files_seen INTEGER NOT NULL DEFAULT 0,
			tracks_decoded INTEGER NOT NULL DEFAULT 0,
			decode_failures INTEGER NOT NULL DEFAULT 0,
			points_total INTEGER NOT NULL DEFAULT 0,
			points_dropped INTEGER NOT NULL DEFAULT 0,
			frames_written INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			path TEXT NOT NULL,
			status TEXT NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			meters REAL NOT NULL DEFAULT 0,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return nil
}

// Transaction executes a function within a database transaction
func (c *Catalog) Transaction(fn func(*sql.Tx) error) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
