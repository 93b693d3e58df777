package storage

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is how a load cycle ended.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeFailed     Outcome = "failed"
	OutcomeSuperseded Outcome = "superseded"
)

// CycleRecord is one journaled dashboard load cycle. It records what was
// asked and how it ended, never the fetched data.
type CycleRecord struct {
	ID         uuid.UUID `json:"id"`
	Trigger    string    `json:"trigger"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs float64   `json:"duration_ms"`
	Outcome    Outcome   `json:"outcome"`
	Error      string    `json:"error,omitempty"`
}

// IsError returns true if the cycle did not render.
func (r *CycleRecord) IsError() bool {
	return r.Outcome != OutcomeSuccess
}
