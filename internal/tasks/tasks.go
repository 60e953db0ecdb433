package tasks

import (
	"time"

	"github.com/hibiken/asynq"
)

const (
	SyncAssessmentExtensions = "sync:assessment_extensions"
	DisplayName              = "Sync assessment extensions and late submissions"
)

// SyncAssessmentExtensionsTask is not retried: a failed run is repeated by
// the next scheduled run, which converges because every write is an upsert.
func SyncAssessmentExtensionsTask() *asynq.Task {
	return asynq.NewTask(SyncAssessmentExtensions, nil,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Minute),
	)
}
