package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reloader repeats the last dashboard load. *dashboard.Controller implements it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Pruner deletes old journal entries. storage.Storage implements it.
type Pruner interface {
	DeleteOldCycles(ctx context.Context, olderThan time.Time) (int64, error)
}

// RefreshJob reloads the dashboard on a schedule.
type RefreshJob struct {
	reloader Reloader
	timeout  time.Duration
	logger   *zap.Logger
}

// NewRefreshJob creates a refresh job. A zero timeout lets a reload run
// until it completes or is superseded.
func NewRefreshJob(reloader Reloader, timeout time.Duration, logger *zap.Logger) *RefreshJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshJob{reloader: reloader, timeout: timeout, logger: logger}
}

// Run executes the refresh (implements cron.Job interface). Failures are
// already logged and journaled by the controller.
func (j *RefreshJob) Run() {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}
	_ = j.RunWithContext(ctx)
}

// RunWithContext executes the refresh with a context.
func (j *RefreshJob) RunWithContext(ctx context.Context) error {
	j.logger.Debug("Starting scheduled refresh")
	return j.reloader.Reload(ctx)
}

// PruneJob enforces the journal retention period.
type PruneJob struct {
	pruner    Pruner
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewPruneJob creates a retention job. It returns nil when retention is
// disabled (zero) or there is no journal.
func NewPruneJob(pruner Pruner, retention time.Duration, logger *zap.Logger) *PruneJob {
	if pruner == nil || retention <= 0 {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PruneJob{pruner: pruner, retention: retention, logger: logger, now: time.Now}
}

// Run executes the retention job (implements cron.Job interface).
func (j *PruneJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := j.RunWithContext(ctx); err != nil {
		j.logger.Error("Journal retention failed", zap.Error(err))
	}
}

// RunWithContext deletes cycles older than the retention period.
func (j *PruneJob) RunWithContext(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	n, err := j.pruner.DeleteOldCycles(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info("Pruned journal", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
