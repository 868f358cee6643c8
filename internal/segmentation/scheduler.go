// AngelaMos | 2026
// scheduler.go

package segmentation

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type Trigger interface {
	Trigger(ctx context.Context, ownerID string) (Result, error)
}

// Scheduler runs a full segmentation on a fixed interval. It implements
// suture.Service.
type Scheduler struct {
	trigger  Trigger
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(trigger Trigger, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		trigger:  trigger,
		interval: interval,
		logger:   logger,
	}
}

// Serve runs once immediately and then on every tick until ctx is done. With
// a zero interval it blocks without running.
func (s *Scheduler) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("segmentation schedule disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) String() string {
	return "segmentation-scheduler"
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.trigger.Trigger(ctx, "")
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Info("skipping scheduled segmentation, run in progress")
	case errors.Is(err, context.Canceled):
		// shutting down
	case err != nil:
		s.logger.Error("scheduled segmentation failed", "error", err)
	default:
		s.logger.Info("scheduled segmentation finished",
			"segmented", result.Segmented,
			"total", result.TotalSubscribers,
		)
	}
}
