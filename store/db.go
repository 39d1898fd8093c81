// Package store persists projects and built packages in SQLite.
// Projects are stored as JSON documents keyed by name; packages are
// stored as archive blobs keyed by their content identifier.
package store

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ownablekit/studio/errors"
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database at the given DSN.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "open database")
	}

	// a memory database exists per connection; keep exactly one
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.IO(errors.PhaseStore, err, "enable foreign keys")
	}

	return &DB{db}, nil
}

// Migrate creates the schema. Safe to call on every startup.
func (db *DB) Migrate() error {
	migration := `
CREATE TABLE IF NOT EXISTS projects (
    name TEXT PRIMARY KEY,
    doc TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS packages (
    cid TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    version TEXT NOT NULL,
    filename TEXT NOT NULL,
    archive BLOB NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_packages_name ON packages(name);
`
	if _, err := db.Exec(migration); err != nil {
		return errors.IO(errors.PhaseStore, err, "run migrations")
	}
	return nil
}
