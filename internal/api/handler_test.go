package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/tasks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockStatusStore struct {
	pingErr   error
	locked    bool
	lockedErr error
	last      *redisutil.RunStatus
	lastErr   error
}

func (m *mockStatusStore) Ping(context.Context) error { return m.pingErr }
func (m *mockStatusStore) Locked(context.Context) (bool, error) {
	return m.locked, m.lockedErr
}
func (m *mockStatusStore) LastStatus(context.Context) (*redisutil.RunStatus, error) {
	return m.last, m.lastErr
}

type mockEnqueuer struct {
	enqueued []*asynq.Task
	err      error
}

func (m *mockEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.enqueued = append(m.enqueued, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: "default", Type: task.Type()}, nil
}

func setupRouter(store *mockStatusStore, enq *mockEnqueuer) *gin.Engine {
	return NewRouter(NewHandler(store, enq, zap.NewNop()), zap.NewNop())
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	w := doRequest(setupRouter(&mockStatusStore{}, &mockEnqueuer{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	w = doRequest(setupRouter(&mockStatusStore{pingErr: errors.New("refused")}, &mockEnqueuer{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetStatus(t *testing.T) {
	finished := time.Date(2021, time.May, 1, 10, 0, 3, 0, time.UTC)
	store := &mockStatusStore{
		locked: true,
		last: &redisutil.RunStatus{
			RunID:      "run-1",
			FinishedAt: finished,
			Outcome:    4,
			Error:      "read extensions: query failed",
		},
	}

	w := doRequest(setupRouter(store, &mockEnqueuer{}), http.MethodGet, "/api/sync/status")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["running"])
	last := body["last_run"].(map[string]any)
	assert.Equal(t, "run-1", last["run_id"])
	assert.Equal(t, float64(4), last["outcome"])
	assert.Equal(t, "read extensions: query failed", last["error"])
}

func TestGetStatus_NoRunYet(t *testing.T) {
	w := doRequest(setupRouter(&mockStatusStore{}, &mockEnqueuer{}), http.MethodGet, "/api/sync/status")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatus_StoreError(t *testing.T) {
	w := doRequest(setupRouter(&mockStatusStore{lastErr: errors.New("boom")}, &mockEnqueuer{}), http.MethodGet, "/api/sync/status")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestTriggerRun(t *testing.T) {
	enq := &mockEnqueuer{}
	w := doRequest(setupRouter(&mockStatusStore{}, enq), http.MethodPost, "/api/sync/run")

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "task-1", decode(t, w)["task_id"])
	require.Len(t, enq.enqueued, 1)
	assert.Equal(t, tasks.SyncAssessmentExtensions, enq.enqueued[0].Type())
}

func TestTriggerRun_Locked(t *testing.T) {
	enq := &mockEnqueuer{}
	w := doRequest(setupRouter(&mockStatusStore{locked: true}, enq), http.MethodPost, "/api/sync/run")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, enq.enqueued)
}

func TestTriggerRun_EnqueueError(t *testing.T) {
	w := doRequest(setupRouter(&mockStatusStore{}, &mockEnqueuer{err: errors.New("redis down")}), http.MethodPost, "/api/sync/run")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
