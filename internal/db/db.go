// Package db provides SQLite persistence for the spindle coordination log.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/spindle-dev/spindle/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id            TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	type          TEXT NOT NULL,
	entity_type   TEXT NOT NULL,
	entity_id     TEXT NOT NULL,
	payload_json  TEXT,
	metadata_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_entity ON events (entity_type, entity_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events (timestamp, id);
`

// DB wraps the SQLite handle used by the repositories.
type DB struct {
	sql    *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the spindle database at path and applies
// the schema.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir %s: %w", dir, err)
		}
	}

	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// Serialized access keeps the single-writer model simple.
	handle.SetMaxOpenConns(1)

	if _, err := handle.Exec(schema); err != nil {
		handle.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &DB{sql: handle, logger: logging.Component("db")}, nil
}

// Close releases the underlying handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

// ExecContext executes a statement.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, query, args...)
}

// QueryContext runs a query returning rows.
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a query expected to return at most one row.
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, query, args...)
}
