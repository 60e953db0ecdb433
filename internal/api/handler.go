package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/tasks"
)

// StatusStore reads the run lock and last run status kept by the worker.
type StatusStore interface {
	Ping(ctx context.Context) error
	Locked(ctx context.Context) (bool, error)
	LastStatus(ctx context.Context) (*redisutil.RunStatus, error)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Handler struct {
	status   StatusStore
	enqueuer Enqueuer
	logger   *zap.Logger
}

func NewHandler(status StatusStore, enqueuer Enqueuer, logger *zap.Logger) *Handler {
	return &Handler{status: status, enqueuer: enqueuer, logger: logger}
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.status.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Redis ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.status.LastStatus(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sync status"})
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync run recorded yet"})
		return
	}

	running, err := h.status.Locked(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sync lock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"running": running, "last_run": status})
}

func (h *Handler) TriggerRun(c *gin.Context) {
	running, err := h.status.Locked(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sync lock"})
		return
	}
	if running {
		c.JSON(http.StatusConflict, gin.H{"error": tasks.ErrSyncRunning.Error()})
		return
	}

	info, err := h.enqueuer.Enqueue(tasks.SyncAssessmentExtensionsTask())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue sync"})
		return
	}

	h.logger.Info("📦 Sync enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
}
