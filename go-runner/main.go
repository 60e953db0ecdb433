package main

import (
	"context"
	"errors"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/config"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/extensions"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/logger"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/moodle"
	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/tasks"
)

// Runs the sync once and exits with its outcome code, for use from cron.
func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Printf("❌ Failed to build logger: %v", err)
		return int(extensions.OutcomeConfigMissing)
	}
	defer zlog.Sync()

	if err := cfg.Validate(); err != nil {
		zlog.Error("❌ Invalid configuration", zap.Error(err))
		return int(extensions.OutcomeConfigMissing)
	}

	ctx := context.Background()

	store, err := moodle.Open(tasks.MoodleOptions(cfg.Moodle), zlog)
	if err != nil {
		zlog.Error("❌ Failed to connect to Moodle database", zap.Error(err))
		return int(extensions.OutcomeConnectionFailure)
	}
	defer store.Close()

	job, err := tasks.BuildJob(cfg, store, zlog)
	if err != nil {
		zlog.Error("❌ Failed to build sync job", zap.Error(err))
		return int(extensions.OutcomeConfigMissing)
	}

	// Redis is optional here; without it the run takes no lock and records no status.
	var state tasks.State
	if redisClient, err := redisutil.ConnectToRedis(ctx, cfg.RedisUrl, zlog); err != nil {
		zlog.Warn("⚠️  Redis unavailable, running without the sync lock", zap.Error(err))
	} else {
		defer redisClient.Close()
		state = redisutil.NewSyncState(redisClient)
	}

	status, err := tasks.NewRunner(job, state, zlog).Run(ctx)
	if errors.Is(err, tasks.ErrSyncRunning) {
		return int(extensions.OutcomeSuccess)
	}
	zlog.Info("Run finished", zap.String("run_id", status.RunID), zap.Int("outcome", status.Outcome))
	return int(extensions.OutcomeOf(err))
}
