package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"urgency-engine/internal/config"
	"urgency-engine/internal/delivery"
	"urgency-engine/internal/handler"
	"urgency-engine/internal/infra/postgresql"
	"urgency-engine/internal/infra/postgresql/migrations"
	infraredis "urgency-engine/internal/infra/redis"
	"urgency-engine/internal/observability"
	"urgency-engine/internal/repository"
	"urgency-engine/internal/service"
	"urgency-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("urgency-engine exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	limiter, err := infraredis.NewDispatchRateLimiter(rdb, cfg.DispatchRatePerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	metrics := observability.NewMetrics()

	templates := repository.NewMemoryTemplateRegistry(repository.BuiltinTemplates())
	schedules := repository.NewMemoryScheduleRepo()
	notifications := repository.NewMemoryNotificationRepo()
	scoreRepo := repository.NewMemoryScoreRepo()
	archive := repository.NewGormArchiveRepo(db)
	users := repository.NewStaticUserDirectory(repository.ParseUserList(cfg.Users))

	scoring, err := service.NewScoringEngine(scoreRepo, users, logger)
	if err != nil {
		return err
	}

	leaderboard, err := service.NewLeaderboard(scoring, logger)
	if err != nil {
		return err
	}
	leaderboard.SetArchive(archive)

	engine, err := service.NewEngine(
		templates,
		notifications,
		scoring,
		time.Duration(cfg.ResponseWindowSec)*time.Second,
		logger,
	)
	if err != nil {
		return err
	}
	defer engine.Close()
	engine.SetMetrics(metrics)
	engine.SetArchive(archive)

	if cfg.DeliveryWebhookURL != "" {
		sink, err := delivery.NewWebhookSink(cfg.DeliveryWebhookURL)
		if err != nil {
			return fmt.Errorf("webhook sink initialization failed: %w", err)
		}
		engine.SetFallbackSink(sink)
	}

	scheduler, err := service.NewScheduler(
		schedules,
		templates,
		engine,
		time.Duration(cfg.TickIntervalSec)*time.Second,
		logger,
	)
	if err != nil {
		return err
	}
	scheduler.SetMetrics(metrics)
	scheduler.SetRateLimiter(limiter)

	scheduleService, err := service.NewScheduleService(schedules, templates, logger)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		AppName:      "urgency-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, map[string]handler.ReadinessCheck{
		"postgres": handler.PostgresCheck(sqlDB),
		"redis":    handler.RedisCheck(rdb),
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterScheduleRoutes(app, scheduleService); err != nil {
		return err
	}
	if err := handler.RegisterNotificationRoutes(app, engine); err != nil {
		return err
	}
	if err := handler.RegisterLeaderboardRoutes(app, leaderboard); err != nil {
		return err
	}
	if err := handler.RegisterScoreRoutes(app, scoring); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("urgency-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	group.Go(func() error {
		return scheduler.Start(groupCtx)
	})

	group.Go(func() error {
		return runSnapshotLoop(groupCtx, leaderboard, time.Duration(cfg.SnapshotIntervalSec)*time.Second)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	return group.Wait()
}

// runSnapshotLoop refreshes the leaderboard trend baseline on a fixed
// cadence; the leaderboard itself never self-schedules snapshots.
func runSnapshotLoop(ctx context.Context, leaderboard *service.Leaderboard, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			leaderboard.SaveSnapshot(ctx)
		}
	}
}
