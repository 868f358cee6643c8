// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/config"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/emaillist"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/engagement"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/segmentation"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	once := flag.Bool("once", false, "run a single segmentation pass and exit")
	owner := flag.String("owner", "", "limit a -once run to one owner id")
	flag.Parse()

	if err := run(*configPath, *once, *owner); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, once bool, owner string) error {
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

	if cfg.Otel.Enabled {
		telemetry, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			defer func() {
				//nolint:errcheck // best-effort flush on exit
				_ = telemetry.Shutdown(context.Background())
			}()
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // closed on exit

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redis.Close() //nolint:errcheck // closed on exit

	listSvc := emaillist.NewService(db.DB, emaillist.NewRepository(db.DB), logger)

	engine := segmentation.NewEngine(
		subscriber.NewRepository(db.DB),
		engagement.NewRepository(db.DB),
		listSvc,
		cfg.Segmentation,
		logger,
	)
	runner := segmentation.NewRunner(
		engine,
		segmentation.NewRedisLocker(redis.Client, cfg.Segmentation.LockTTL),
		segmentation.NewRedisReportStore(redis.Client),
		logger,
	)

	if once {
		result, err := runner.Trigger(ctx, owner)
		if err != nil {
			return err
		}
		logger.Info("segmentation pass finished",
			"segmented", result.Segmented,
			"total", result.TotalSubscribers,
			"failed", result.Failed,
		)
		return nil
	}

	if cfg.Segmentation.Interval <= 0 {
		return errors.New("segmentation.interval must be set to run the scheduler")
	}

	supervisor := suture.New("fan-segmenter-worker", suture.Spec{
		EventHook:        (&sutureslog.Handler{Logger: logger}).MustHook(),
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
	supervisor.Add(segmentation.NewScheduler(runner, cfg.Segmentation.Interval, logger))

	logger.Info("segmentation worker started",
		"interval", cfg.Segmentation.Interval.String(),
		"workers", cfg.Segmentation.Workers,
	)

	if err := supervisor.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("segmentation worker stopped")
	return nil
}
