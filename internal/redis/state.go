package redisutil

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lockKey   = "assessment_extensions:sync_running"
	statusKey = "assessment_extensions:last_run"
)

// releaseScript deletes the lock only while it still belongs to the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunStatus is the summary of the most recent sync run.
type RunStatus struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Outcome        int       `json:"outcome"`
	Error          string    `json:"error,omitempty"`
	ExtensionsRead int       `json:"extensions_read"`
	LatesRead      int       `json:"lates_read"`
	Created        int       `json:"created"`
	Updated        int       `json:"updated"`
	Unchanged      int       `json:"unchanged"`
	Skipped        int       `json:"skipped"`
	Failed         int       `json:"failed"`
}

// SyncState keeps the run lock and the last run status in Redis.
type SyncState struct {
	client *redis.Client
}

func NewSyncState(client *redis.Client) *SyncState {
	return &SyncState{client: client}
}

// AcquireLock takes the run lock for runID. false means another run holds it.
func (s *SyncState) AcquireLock(ctx context.Context, runID string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, lockKey, runID, ttl).Result()
}

// ReleaseLock drops the lock if runID still holds it. A run that outlived
// the lock TTL leaves a newer run's lock alone and gets false.
func (s *SyncState) ReleaseLock(ctx context.Context, runID string) (bool, error) {
	n, err := releaseScript.Run(ctx, s.client, []string{lockKey}, runID).Int64()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SyncState) Locked(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, lockKey).Result()
	return n > 0, err
}

func (s *SyncState) SaveStatus(ctx context.Context, status RunStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statusKey, data, 0).Err()
}

// LastStatus returns nil, nil before the first run has finished.
func (s *SyncState) LastStatus(ctx context.Context) (*RunStatus, error) {
	data, err := s.client.Get(ctx, statusKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *SyncState) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
