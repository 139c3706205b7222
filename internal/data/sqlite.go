package data

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS replied (
		conversation_id TEXT PRIMARY KEY,
		last_timestamp TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rejected (
		conversation_id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usage_by_model (
		model TEXT PRIMARY KEY,
		tokens INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usage_total (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		total_tokens INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pending (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		name TEXT NOT NULL,
		inbound_text TEXT NOT NULL,
		inbound_timestamp TEXT NOT NULL,
		reply TEXT NOT NULL,
		personality TEXT NOT NULL,
		fallback INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		UNIQUE (conversation_id, inbound_timestamp)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pending_created_at ON pending(created_at)`,
	`CREATE TABLE IF NOT EXISTS outreach (
		conversation_id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		sent_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`,
}

// OpenDB opens (creating if needed) the SQLite database and applies the schema
func OpenDB(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps writes serialised and the pragmas below in effect
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA journal_mode = WAL`,
		`PRAGMA synchronous = FULL`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return db, nil
}
