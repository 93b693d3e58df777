package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const cycleColumns = `id, trigger_name, range_from, range_to, started_at, duration_ms, outcome, error`

// journal holds the queries shared by the SQL backends. Queries are written
// with "?" placeholders; numbered rewrites them as $1, $2, ... for PostgreSQL.
type journal struct {
	db       *sql.DB
	numbered bool
}

func (j *journal) bind(query string) string {
	if !j.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Close closes the database connection.
func (j *journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// SaveCycle saves a load cycle to the database.
func (j *journal) SaveCycle(ctx context.Context, record *CycleRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	query := j.bind(`INSERT INTO load_cycles (` + cycleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := j.db.ExecContext(ctx, query,
		record.ID,
		record.Trigger,
		record.From,
		record.To,
		record.StartedAt.UTC(),
		record.DurationMs,
		string(record.Outcome),
		record.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}
	return nil
}

// GetCycle retrieves a single cycle by ID.
func (j *journal) GetCycle(ctx context.Context, id uuid.UUID) (*CycleRecord, error) {
	query := j.bind(`SELECT ` + cycleColumns + ` FROM load_cycles WHERE id = ?`)

	record, err := scanCycle(j.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cycle: %w", err)
	}
	return record, nil
}

// GetCycles retrieves cycles based on filter criteria, newest first.
func (j *journal) GetCycles(ctx context.Context, filter CycleFilter) ([]CycleRecord, error) {
	query := `SELECT ` + cycleColumns + ` FROM load_cycles WHERE 1=1`
	args := []interface{}{}

	if filter.Outcome != "" {
		query += " AND outcome = ?"
		args = append(args, string(filter.Outcome))
	}
	if filter.Trigger != "" {
		query += " AND trigger_name = ?"
		args = append(args, filter.Trigger)
	}
	if !filter.Since.IsZero() {
		query += " AND started_at >= ?"
		args = append(args, filter.Since.UTC())
	}
	if !filter.Until.IsZero() {
		query += " AND started_at <= ?"
		args = append(args, filter.Until.UTC())
	}

	query += " ORDER BY started_at DESC"

	if filter.Limit > 0 || filter.Offset > 0 {
		// OFFSET needs a LIMIT in SQLite.
		limit := filter.Limit
		if limit <= 0 {
			limit = math.MaxInt32
		}
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := j.db.QueryContext(ctx, j.bind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []CycleRecord
	for rows.Next() {
		r, err := scanCycle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cycles: %w", err)
	}
	return records, nil
}

// GetStats aggregates the cycles started within period.
func (j *journal) GetStats(ctx context.Context, period time.Duration) (*Stats, error) {
	until := time.Now().UTC()
	since := until.Add(-period)

	query := j.bind(`
	SELECT
		COUNT(*),
		COUNT(CASE WHEN outcome = 'success' THEN 1 END),
		COUNT(CASE WHEN outcome = 'failed' THEN 1 END),
		COUNT(CASE WHEN outcome = 'superseded' THEN 1 END),
		AVG(CASE WHEN outcome = 'success' THEN duration_ms END),
		MIN(CASE WHEN outcome = 'success' THEN duration_ms END),
		MAX(CASE WHEN outcome = 'success' THEN duration_ms END)
	FROM load_cycles
	WHERE started_at >= ? AND started_at <= ?
	`)

	stats := &Stats{Period: period, Since: since, Until: until}
	var avg, lo, hi sql.NullFloat64
	err := j.db.QueryRowContext(ctx, query, since, until).Scan(
		&stats.CycleCount,
		&stats.SuccessCount,
		&stats.FailedCount,
		&stats.SupersededCount,
		&avg,
		&lo,
		&hi,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	stats.AvgDurationMs = avg.Float64
	stats.MinDurationMs = lo.Float64
	stats.MaxDurationMs = hi.Float64
	if stats.CycleCount > 0 {
		stats.SuccessRate = float64(stats.SuccessCount) / float64(stats.CycleCount)
	}

	var last time.Time
	err = j.db.QueryRowContext(ctx, j.bind(`
	SELECT started_at FROM load_cycles
	WHERE outcome = 'success' AND started_at >= ? AND started_at <= ?
	ORDER BY started_at DESC LIMIT 1
	`), since, until).Scan(&last)
	switch {
	case err == nil:
		stats.LastSuccess = &last
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to get last success: %w", err)
	}

	return stats, nil
}

// DeleteOldCycles removes cycles started before olderThan.
func (j *journal) DeleteOldCycles(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx, j.bind("DELETE FROM load_cycles WHERE started_at < ?"), olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old cycles: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCycle(row rowScanner) (*CycleRecord, error) {
	var r CycleRecord
	var outcome string
	err := row.Scan(
		&r.ID,
		&r.Trigger,
		&r.From,
		&r.To,
		&r.StartedAt,
		&r.DurationMs,
		&outcome,
		&r.Error,
	)
	if err != nil {
		return nil, err
	}
	r.Outcome = Outcome(outcome)
	return &r, nil
}
