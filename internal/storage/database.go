// Package storage persists the index metadata sidecar: one row per chunk,
// in chunk ordinal order, plus a single-row build manifest. The sidecar is
// rebuilt together with the binary vector store and swapped together with it.
package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens a SQLite database at the given path.
// It enables foreign keys and sets connection pool settings.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the required tables. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			ord INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			source_path TEXT NOT NULL,
			section_heading TEXT NOT NULL DEFAULT '',
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			text TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS manifest (
			rowid_guard INTEGER PRIMARY KEY CHECK (rowid_guard = 1),
			build_id TEXT NOT NULL,
			model TEXT NOT NULL,
			dim INTEGER NOT NULL,
			chunk_count INTEGER NOT NULL,
			built_at TEXT NOT NULL
		);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
