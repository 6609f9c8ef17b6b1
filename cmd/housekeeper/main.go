package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orderbot-backend/internal/housekeeping"
	"github.com/angelmondragon/orderbot-backend/pkg/config"
	"github.com/angelmondragon/orderbot-backend/pkg/db"
	"github.com/angelmondragon/orderbot-backend/pkg/instance"
	"github.com/angelmondragon/orderbot-backend/pkg/logger"
	"github.com/angelmondragon/orderbot-backend/pkg/metrics"
	"github.com/angelmondragon/orderbot-backend/pkg/migrate"
	"github.com/angelmondragon/orderbot-backend/pkg/outbox"
	"github.com/angelmondragon/orderbot-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "housekeeper"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "housekeeper"

	logg = logger.New(logger.Options{
		ServiceName: "housekeeper",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	lock, err := housekeeping.NewRedisLock(redisClient, redisClient.LockKey("housekeeping:"+cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create housekeeping lock", err)
		os.Exit(1)
	}

	retention, err := housekeeping.NewOutboxRetentionJob(housekeeping.OutboxRetentionParams{
		Logger:        logg,
		DB:            dbClient,
		Repository:    outbox.NewRepository(dbClient.DB()),
		RetentionDays: cfg.Housekeeping.OutboxRetentionDays,
		MaxAttempts:   cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox retention job", err)
		os.Exit(1)
	}

	service, err := housekeeping.NewService(housekeeping.ServiceParams{
		Logger:   logg,
		Registry: housekeeping.NewRegistry(retention),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Housekeeping.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create housekeeping service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"instance":    instance.ID(),
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting housekeeper")

	exitCode := 0
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "housekeeper stopped unexpectedly", err)
		exitCode = 1
	}
	stop()

	if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "housekeeper shutdown incomplete", err)
		exitCode = 1
	}
	logg.Info(ctx, "housekeeper shutting down gracefully")
	os.Exit(exitCode)
}
