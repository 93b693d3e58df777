package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lan-dot-party/metroflow/internal/config"
)

// PostgresStorage implements the Storage interface using PostgreSQL.
type PostgresStorage struct {
	journal
	cfg config.PostgresConfig
}

// NewPostgresStorage creates a new PostgreSQL storage instance.
func NewPostgresStorage(cfg config.PostgresConfig) (*PostgresStorage, error) {
	return &PostgresStorage{
		journal: journal{numbered: true},
		cfg:     cfg,
	}, nil
}

// buildDSN creates the PostgreSQL connection string.
func (s *PostgresStorage) buildDSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s sslmode=%s",
		s.cfg.Host,
		s.cfg.Port,
		s.cfg.Database,
		s.cfg.User,
		s.cfg.SSLMode,
	)

	if s.cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", s.cfg.Password)
	}

	return dsn
}

// Init initializes the PostgreSQL database connection and schema.
func (s *PostgresStorage) Init(ctx context.Context) error {
	// Open database connection using pgx stdlib driver
	db, err := sql.Open("pgx", s.buildDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Configure connection pool
	s.db.SetMaxOpenConns(10)
	s.db.SetMaxIdleConns(2)
	s.db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := s.createSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// createSchema creates the database tables if they don't exist.
func (s *PostgresStorage) createSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS load_cycles (
		id UUID PRIMARY KEY,
		trigger_name TEXT NOT NULL,
		range_from TEXT NOT NULL DEFAULT '',
		range_to TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_cycles_started ON load_cycles(started_at);
	CREATE INDEX IF NOT EXISTS idx_cycles_outcome_started ON load_cycles(outcome, started_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}
