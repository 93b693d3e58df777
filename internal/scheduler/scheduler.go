// Package scheduler provides cron-based refreshes of the dashboard.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/config"
)

// pruneSchedule runs the journal retention job.
const pruneSchedule = "@hourly"

// Scheduler manages the scheduled refresh and journal retention jobs.
type Scheduler struct {
	cron      *cron.Cron
	config    *config.SchedulerConfig
	refresh   *RefreshJob
	prune     *PruneJob
	logger    *zap.Logger
	running   bool
	mu        sync.Mutex
	refreshID cron.EntryID
}

// NewScheduler creates a new scheduler instance. prune may be nil when no
// journal is configured.
func NewScheduler(cfg *config.SchedulerConfig, refresh *RefreshJob, prune *PruneJob, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg == nil {
		return nil, fmt.Errorf("scheduler config is required")
	}

	if refresh == nil {
		return nil, fmt.Errorf("refresh job is required")
	}

	cl := cron.VerbosePrintfLogger(&cronLogger{logger: logger})
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		),
	)

	return &Scheduler{
		cron:    c,
		config:  cfg,
		refresh: refresh,
		prune:   prune,
		logger:  logger,
	}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled in configuration")
		return nil
	}

	entryID, err := s.cron.AddJob(s.config.Schedule, s.refresh)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w (schedule: %s)", err, s.config.Schedule)
	}
	s.refreshID = entryID

	if s.prune != nil {
		if _, err := s.cron.AddJob(pruneSchedule, s.prune); err != nil {
			return fmt.Errorf("failed to add retention job: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.config.Schedule),
		zap.Bool("retention", s.prune != nil),
		zap.Time("next_run", s.cron.Entry(entryID).Next),
	)

	return nil
}

// Stop gracefully stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false

	s.logger.Info("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// GetStatus returns the current scheduler status.
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Enabled:  s.config.Enabled,
		Running:  s.running,
		Schedule: s.config.Schedule,
	}

	if s.running && s.refreshID != 0 {
		entry := s.cron.Entry(s.refreshID)
		status.NextRun = entry.Next.Format(time.RFC3339)
		if !entry.Prev.IsZero() {
			status.LastRun = entry.Prev.Format(time.RFC3339)
		}
	}

	return status
}

// Status represents the scheduler status.
type Status struct {
	Enabled  bool   `json:"enabled"`
	Running  bool   `json:"running"`
	Schedule string `json:"schedule"`
	NextRun  string `json:"next_run,omitempty"`
	LastRun  string `json:"last_run,omitempty"`
}

// cronLogger adapts zap.Logger to cron's logger interface.
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Printf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// RunOnce runs the refresh job once immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.refresh.RunWithContext(ctx)
}
