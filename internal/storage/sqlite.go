package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/lan-dot-party/metroflow/internal/config"
)

// SQLiteStorage implements the Storage interface using SQLite.
type SQLiteStorage struct {
	journal
	path string
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(cfg config.SQLiteConfig) (*SQLiteStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	return &SQLiteStorage{path: cfg.Path}, nil
}

// Init initializes the SQLite database connection and schema.
func (s *SQLiteStorage) Init(ctx context.Context) error {
	// Ensure directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; the controller and the scheduler both journal.
	db.SetMaxOpenConns(1)
	s.db = db

	// Enable WAL mode for better concurrency
	if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.createSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStorage) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS load_cycles (
		id TEXT PRIMARY KEY,
		trigger_name TEXT NOT NULL,
		range_from TEXT NOT NULL DEFAULT '',
		range_to TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		duration_ms REAL NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started ON load_cycles(started_at);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome_started ON load_cycles(outcome, started_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
