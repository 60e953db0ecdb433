package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extensions"
	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/tasks"
)

type Runner interface {
	Run(ctx context.Context) (redisutil.RunStatus, error)
}

// ExtensionsHandler runs the sync for each sync:assessment_extensions task.
type ExtensionsHandler struct {
	runner Runner
	logger *zap.Logger
}

func NewExtensionsHandler(runner Runner, logger *zap.Logger) *ExtensionsHandler {
	return &ExtensionsHandler{runner: runner, logger: logger}
}

// ProcessTask treats a held lock and a misconfiguration as handled; the
// connection and query failures fail the task without retrying.
func (h *ExtensionsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	h.logger.Info("🔄 Task received", zap.String("type", t.Type()), zap.String("name", tasks.DisplayName))

	status, err := h.runner.Run(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tasks.ErrSyncRunning):
		return nil
	case extensions.OutcomeOf(err) == extensions.OutcomeConfigMissing:
		h.logger.Warn("⚠️  Sync not configured", zap.String("run_id", status.RunID), zap.Error(err))
		return nil
	default:
		return fmt.Errorf("run %s outcome %d: %w: %w", status.RunID, extensions.OutcomeOf(err), err, asynq.SkipRetry)
	}
}
