// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/admin"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/auth"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/config"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/emaillist"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/engagement"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/health"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/metrics"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/middleware"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/segmentation"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/server"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := config.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	subscriberRepo := subscriber.NewRepository(db.DB)
	subscriberSvc := subscriber.NewService(subscriberRepo)
	subscriberHandler := subscriber.NewHandler(subscriberSvc)

	eventRepo := engagement.NewRepository(db.DB)
	eventSvc := engagement.NewService(eventRepo, subscriberSvc)
	eventHandler := engagement.NewHandler(eventSvc)

	listRepo := emaillist.NewRepository(db.DB)
	listSvc := emaillist.NewService(db.DB, listRepo, logger)
	listHandler := emaillist.NewHandler(listSvc)

	engine := segmentation.NewEngine(
		subscriberRepo,
		eventRepo,
		listSvc,
		cfg.Segmentation,
		logger,
	)
	reports := segmentation.NewRedisReportStore(redis.Client)
	runner := segmentation.NewRunner(
		engine,
		segmentation.NewRedisLocker(redis.Client, cfg.Segmentation.LockTTL),
		reports,
		logger,
	)
	segmentationHandler := segmentation.NewHandler(runner, subscriberSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DB:           db,
		Redis:        redis,
		DBStats:      db.Stats,
		RedisStats:   redis.PoolStats,
		BreakerState: engine.BreakerState,
		Reports:      reports,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Name: "global",
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin
	runLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name: "segmentation-run",
		Limit: middleware.PerMinute(
			cfg.RateLimit.TriggerRequests,
			cfg.RateLimit.TriggerBurst,
		),
		KeyFunc:  middleware.KeyByUserAndRoute("segmentation-run"),
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		subscriberHandler.RegisterRoutes(r, authenticator)
		eventHandler.RegisterRoutes(r, authenticator)
		listHandler.RegisterRoutes(r, authenticator)
		segmentationHandler.RegisterRoutes(r, authenticator, runLimiter)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}
