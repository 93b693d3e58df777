// Package storage journals dashboard load cycles.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lan-dot-party/metroflow/internal/config"
)

// ErrNotFound is returned when a cycle does not exist.
var ErrNotFound = errors.New("cycle not found")

// ErrDisabled is returned by NewStorage for storage type "none".
var ErrDisabled = errors.New("journal disabled")

// Storage defines the interface for storing and retrieving load cycles.
type Storage interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error

	// Cycles
	SaveCycle(ctx context.Context, record *CycleRecord) error
	GetCycle(ctx context.Context, id uuid.UUID) (*CycleRecord, error)
	GetCycles(ctx context.Context, filter CycleFilter) ([]CycleRecord, error)

	// Stats
	GetStats(ctx context.Context, period time.Duration) (*Stats, error)

	// Cleanup
	DeleteOldCycles(ctx context.Context, olderThan time.Time) (int64, error)
}

// CycleFilter defines criteria for filtering cycles.
type CycleFilter struct {
	Outcome Outcome
	Trigger string
	Since   time.Time
	Until   time.Time
	Limit   int
	Offset  int
}

// Stats summarises the cycles of a period.
type Stats struct {
	CycleCount      int           `json:"cycle_count"`
	SuccessCount    int           `json:"success_count"`
	FailedCount     int           `json:"failed_count"`
	SupersededCount int           `json:"superseded_count"`
	SuccessRate     float64       `json:"success_rate"`
	AvgDurationMs   float64       `json:"avg_duration_ms"`
	MinDurationMs   float64       `json:"min_duration_ms"`
	MaxDurationMs   float64       `json:"max_duration_ms"`
	LastSuccess     *time.Time    `json:"last_success,omitempty"`
	Period          time.Duration `json:"period"`
	Since           time.Time     `json:"since"`
	Until           time.Time     `json:"until"`
}

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case config.StorageSQLite:
		return NewSQLiteStorage(cfg.SQLite)
	case config.StoragePostgres:
		return NewPostgresStorage(cfg.Postgres)
	case config.StorageNone:
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
