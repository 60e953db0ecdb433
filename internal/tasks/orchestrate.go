package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extensions"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/metrics"
	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
)

const defaultLockTTL = 30 * time.Minute

var ErrSyncRunning = errors.New("assessment extensions sync already running")

type SyncJob interface {
	Run(ctx context.Context) (*extensions.Report, error)
}

// State holds the cross-process run lock and the last run status.
type State interface {
	AcquireLock(ctx context.Context, runID string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, runID string) (bool, error)
	SaveStatus(ctx context.Context, status redisutil.RunStatus) error
}

type Indexer interface {
	IndexOverrides(ctx context.Context, runID string, decisions []extensions.Decision) error
}

// Runner wraps one sync job with the run lock, status persistence, metrics
// and the audit index. Everything but the job is optional.
type Runner struct {
	job     SyncJob
	state   State
	indexer Indexer
	metrics *metrics.SyncMetrics
	logger  *zap.Logger
	lockTTL time.Duration
}

func NewRunner(job SyncJob, state State, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{job: job, state: state, logger: logger, lockTTL: defaultLockTTL}
}

func (r *Runner) WithIndexer(indexer Indexer) *Runner {
	r.indexer = indexer
	return r
}

func (r *Runner) WithMetrics(m *metrics.SyncMetrics) *Runner {
	r.metrics = m
	return r
}

// Run executes the job once. It returns ErrSyncRunning without running when
// another run holds the lock. The returned error is the job's own error, so
// extensions.OutcomeOf maps it to the run outcome code.
func (r *Runner) Run(ctx context.Context) (redisutil.RunStatus, error) {
	runID := uuid.NewString()
	logger := r.logger.With(zap.String("run_id", runID))

	if r.state != nil {
		locked, err := r.state.AcquireLock(ctx, runID, r.lockTTL)
		if err != nil {
			logger.Error("❌ Failed to acquire sync lock", zap.Error(err))
			return redisutil.RunStatus{}, err
		}
		if !locked {
			logger.Warn("⚠️  Lock exists, skipping the sync")
			return redisutil.RunStatus{}, ErrSyncRunning
		}
		defer func() {
			released, err := r.state.ReleaseLock(context.WithoutCancel(ctx), runID)
			if err != nil {
				logger.Warn("Failed to release sync lock", zap.Error(err))
			} else if !released {
				logger.Warn("⚠️  Sync lock expired and was taken by another run")
			}
		}()
	}

	started := time.Now()
	report, runErr := r.job.Run(ctx)
	outcome := extensions.OutcomeOf(runErr)
	status := NewRunStatus(runID, started, report, runErr)

	if runErr != nil {
		logger.Error("❌ Assessment extensions sync failed",
			zap.Int("outcome", int(outcome)), zap.Error(runErr))
	}

	if r.metrics != nil {
		r.metrics.ObserveRun(report, outcome, status.FinishedAt.Sub(started))
	}

	if r.indexer != nil && report != nil {
		if err := r.indexer.IndexOverrides(ctx, runID, report.Decisions); err != nil {
			logger.Warn("Failed to index overrides", zap.Error(err))
		}
	}

	if r.state != nil {
		if err := r.state.SaveStatus(context.WithoutCancel(ctx), status); err != nil {
			logger.Warn("Failed to save run status", zap.Error(err))
		}
	}

	return status, runErr
}

// NewRunStatus summarizes a finished run. report is nil when the run stopped
// before applying anything.
func NewRunStatus(runID string, started time.Time, report *extensions.Report, runErr error) redisutil.RunStatus {
	status := redisutil.RunStatus{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Outcome:    int(extensions.OutcomeOf(runErr)),
	}
	if runErr != nil {
		status.Error = runErr.Error()
	}
	if report == nil {
		return status
	}
	if !report.FinishedAt.IsZero() {
		status.StartedAt = report.StartedAt
		status.FinishedAt = report.FinishedAt
	}
	status.ExtensionsRead = report.ExtensionsRead
	status.LatesRead = report.LatesRead
	status.Created = report.Count("", extensions.ActionCreated)
	status.Updated = report.Count("", extensions.ActionUpdated)
	status.Unchanged = report.Count("", extensions.ActionUnchanged)
	status.Skipped = report.Count("", extensions.ActionSkipped)
	status.Failed = report.Count("", extensions.ActionFailed)
	return status
}
