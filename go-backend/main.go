package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/api"
	asynqutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/asynq"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/config"
	"github.com/PrathameshKalekar/assessment-extensions-sync/internal/logger"
	redisutil "github.com/PrathameshKalekar/assessment-extensions-sync/internal/redis"
)

func main() {
	gin.SetMode(gin.ReleaseMode)
	cfg := config.Load()
	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("❌ Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	redisClient, err := redisutil.ConnectToRedis(context.Background(), cfg.RedisUrl, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	redisOpt, err := asynqutil.RedisOpt(cfg.RedisUrl)
	if err != nil {
		zlog.Fatal("❌ Invalid REDIS_URL", zap.Error(err))
	}
	asyncClient := asynq.NewClient(redisOpt)
	defer asyncClient.Close()

	h := api.NewHandler(redisutil.NewSyncState(redisClient), asyncClient, zlog)
	r := api.NewRouter(h, zlog)

	zlog.Info("🚀 Status API listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("❌ Server stopped", zap.Error(err))
	}
}
