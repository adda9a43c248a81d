package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kursadbilgin/opportunity-engine/internal/config"
	"github.com/kursadbilgin/opportunity-engine/internal/events"
	"github.com/kursadbilgin/opportunity-engine/internal/handler"
	"github.com/kursadbilgin/opportunity-engine/internal/infra/postgresql"
	"github.com/kursadbilgin/opportunity-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/opportunity-engine/internal/infra/redis"
	"github.com/kursadbilgin/opportunity-engine/internal/observability"
	"github.com/kursadbilgin/opportunity-engine/internal/repository"
	"github.com/kursadbilgin/opportunity-engine/internal/service"
	"github.com/kursadbilgin/opportunity-engine/internal/transport"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN, postgresql.PoolOptions{})
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.InsertRateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		logger.Fatal("event publisher initialization failed", zap.Error(err))
	}
	defer publisher.Close() //nolint:errcheck

	metrics := observability.NewMetrics()

	opportunityService, err := service.NewOpportunityService(
		repository.NewGormOpportunityRepo(db),
		publisher,
		logger.Named("opportunities"),
	)
	if err != nil {
		logger.Fatal("opportunity service initialization failed", zap.Error(err))
	}
	opportunityService.SetMetrics(metrics)

	batchService, err := service.NewBatchService(
		repository.NewGormDirectoryRepo(db),
		opportunityService,
		limiter,
		cfg.MaxBatchSize,
		logger.Named("batch"),
	)
	if err != nil {
		logger.Fatal("batch service initialization failed", zap.Error(err))
	}
	batchService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		AppName:      "opportunity-engine",
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(observability.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterOpportunityRoutes(app, opportunityService, batchService); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("opportunity-engine api started",
			zap.Int("port", cfg.APIPort),
			zap.Bool("events", cfg.EventsEnabled()),
			zap.Int("maxBatchSize", cfg.MaxBatchSize),
		)
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down api", zap.Duration("timeout", cfg.ShutdownTimeout()))
		return app.ShutdownWithTimeout(cfg.ShutdownTimeout())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("api stopped with error", zap.Error(err))
	}
	logger.Info("opportunity-engine api stopped")
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if !cfg.EventsEnabled() {
		logger.Info("RABBITMQ_URL not set, opportunity events disabled")
		return events.NopPublisher{}, nil
	}

	client, err := events.NewRabbitMQ(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		return nil, err
	}
	return events.NewRabbitMQPublisher(client), nil
}
