package extensions

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Connector opens the external source for one run.
type Connector func(ctx context.Context) (Source, error)

// Job is one end-to-end sync: read extensions and late submissions, apply
// them to the platform, then reset the source change flags.
type Job struct {
	dbType  string
	tables  Tables
	connect Connector
	applier *Applier
	logger  *zap.Logger
}

func NewJob(dbType string, tables Tables, connect Connector, applier *Applier, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{
		dbType:  dbType,
		tables:  tables,
		connect: connect,
		applier: applier,
		logger:  logger,
	}
}

// Run executes the sync once. A returned *RunError aborted the run; writes
// already applied stay applied and the next run converges.
func (j *Job) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}
	j.logger.Info("🔄 Starting assessment extensions sync", zap.Time("started_at", report.StartedAt))

	if j.dbType == "" {
		return nil, configMissing("database type")
	}
	j.logger.Info("Database", zap.String("type", j.dbType))
	if j.tables.Assessments == "" {
		return nil, configMissing("assessments table")
	}
	j.logger.Info("Assessments table", zap.String("table", j.tables.Assessments))
	if j.tables.StudentAssessments == "" {
		return nil, configMissing("student assessments table")
	}
	j.logger.Info("Student assessments table", zap.String("table", j.tables.StudentAssessments))

	src, err := j.connect(ctx)
	if err != nil {
		return nil, connectionFailure(err)
	}

	extensions, err := ReadExtensions(ctx, src, j.tables)
	if err != nil {
		src.Close()
		return nil, queryFailure("read extensions", err)
	}
	report.ExtensionsRead = extensions.Len()

	lates, err := ReadLateSubmissions(ctx, src, j.tables, extensions)
	if err != nil {
		src.Close()
		return nil, queryFailure("read late submissions", err)
	}
	report.LatesRead = lates.Len()

	j.logger.Info("Source records read",
		zap.Int("extensions", report.ExtensionsRead),
		zap.Int("late_submissions", report.LatesRead))

	j.applier.ApplyExtensions(ctx, extensions, report)
	j.applier.ApplyLates(ctx, lates, report)

	ResetChangeFlags(ctx, src, j.tables, j.logger)

	if err := src.Close(); err != nil {
		j.logger.Warn("Failed to close external database", zap.Error(err))
	}

	report.FinishedAt = time.Now()
	j.logger.Info("✅ Assessment extensions sync completed",
		zap.Time("finished_at", report.FinishedAt),
		zap.Int("created", report.Count("", ActionCreated)),
		zap.Int("updated", report.Count("", ActionUpdated)),
		zap.Int("unchanged", report.Count("", ActionUnchanged)),
		zap.Int("skipped", report.Count("", ActionSkipped)),
		zap.Int("failed", report.Count("", ActionFailed)))

	return report, nil
}
