//go:build integration

package redisutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestState(t *testing.T) *SyncState {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := ConnectToRedis(context.Background(), url, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		client.Del(context.Background(), lockKey, statusKey)
		client.Close()
	})
	client.Del(context.Background(), lockKey, statusKey)
	return NewSyncState(client)
}

func TestSyncState_Lock(t *testing.T) {
	state := setupTestState(t)
	ctx := context.Background()

	ok, err := state.AcquireLock(ctx, "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = state.AcquireLock(ctx, "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := state.Locked(ctx)
	require.NoError(t, err)
	assert.True(t, locked)

	released, err := state.ReleaseLock(ctx, "run-2")
	require.NoError(t, err)
	assert.False(t, released, "only the holder releases the lock")
	locked, err = state.Locked(ctx)
	require.NoError(t, err)
	assert.True(t, locked)

	released, err = state.ReleaseLock(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, released)
	locked, err = state.Locked(ctx)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSyncState_Status(t *testing.T) {
	state := setupTestState(t)
	ctx := context.Background()

	last, err := state.LastStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	want := RunStatus{
		RunID:      "run-1",
		StartedAt:  time.Date(2021, time.May, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2021, time.May, 1, 10, 0, 3, 0, time.UTC),
		Outcome:    4,
		Error:      "read extensions: query failed",
		Created:    2,
	}
	require.NoError(t, state.SaveStatus(ctx, want))

	last, err = state.LastStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, want, *last)
}
