package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	asynqutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/asynq"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/config"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/logger"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/metrics"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/moodle"
	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/tasks"
	syncutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/tasks/sync"
	typesenseutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/typesense"
)

func main() {
	cfg := config.Load()
	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("❌ Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	redisClient, err := redisutil.ConnectToRedis(ctx, cfg.RedisUrl, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	store, err := moodle.Open(tasks.MoodleOptions(cfg.Moodle), zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to connect to Moodle database", zap.Error(err))
	}
	defer store.Close()

	job, err := tasks.BuildJob(cfg, store, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to build sync job", zap.Error(err))
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)
	runner := tasks.NewRunner(job, redisutil.NewSyncState(redisClient), zlog).WithMetrics(syncMetrics)

	if cfg.TypesenseHost != "" {
		tsClient, err := typesenseutil.ConnectToTypesense(ctx, cfg.TypesenseHost, cfg.TypesenseKey, zlog)
		if err != nil {
			zlog.Warn("⚠️  Typesense unavailable, overrides will not be indexed", zap.Error(err))
		} else {
			runner.WithIndexer(typesenseutil.NewIndexer(tsClient, zlog))
		}
	}

	redisOpt, err := asynqutil.RedisOpt(cfg.RedisUrl)
	if err != nil {
		zlog.Fatal("❌ Invalid REDIS_URL", zap.Error(err))
	}

	asyncServer := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: zlog.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.SyncAssessmentExtensions, syncutil.NewExtensionsHandler(runner, zlog))

	loc, err := time.LoadLocation(cfg.Sync.Timezone)
	if err != nil {
		zlog.Fatal("❌ Invalid SYNC_TIMEZONE", zap.Error(err))
	}
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: loc, Logger: zlog.Sugar()})
	if _, err := scheduler.Register(cfg.Sync.Schedule, tasks.SyncAssessmentExtensionsTask()); err != nil {
		zlog.Fatal("❌ Failed to register schedule", zap.Error(err))
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			zlog.Error("❌ Scheduler stopped", zap.Error(err))
		}
	}()

	go func() {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		zlog.Info("📈 Metrics listening", zap.String("addr", cfg.MetricsAddr))
		if err := http.ListenAndServe(cfg.MetricsAddr, metricsMux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("❌ Metrics server stopped", zap.Error(err))
		}
	}()

	// Run once on startup
	asyncClient := asynq.NewClient(redisOpt)
	defer asyncClient.Close()
	if _, err := asyncClient.Enqueue(tasks.SyncAssessmentExtensionsTask()); err != nil {
		zlog.Warn("⚠️  Failed to enqueue startup sync", zap.Error(err))
	}

	zlog.Info("🚀 Worker started",
		zap.String("task", tasks.SyncAssessmentExtensions),
		zap.String("schedule", cfg.Sync.Schedule),
		zap.String("timezone", cfg.Sync.Timezone))

	if err := asyncServer.Run(mux); err != nil {
		zlog.Fatal("❌ Worker stopped", zap.Error(err))
	}
}
