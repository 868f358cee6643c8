// AngelaMos | 2026
// runner.go

package segmentation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/metrics"
)

type RunEngine interface {
	Run(ctx context.Context, ownerID string) (Result, error)
}

// Runner serialises runs per scope and records each outcome.
type Runner struct {
	engine  RunEngine
	locker  Locker
	reports ReportStore
	logger  *slog.Logger
}

func NewRunner(
	engine RunEngine,
	locker Locker,
	reports ReportStore,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		engine:  engine,
		locker:  locker,
		reports: reports,
		logger:  logger,
	}
}

// Trigger runs the engine for ownerID ("" for everyone). It returns
// ErrAlreadyRunning without running when the scope is locked.
func (r *Runner) Trigger(ctx context.Context, ownerID string) (Result, error) {
	scope := scopeOf(ownerID)

	release, err := r.locker.Acquire(ctx, scope)
	if err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			metrics.RecordRun(metricScope(ownerID), "locked", 0, 0, 0)
		}
		return Result{}, err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			r.logger.Warn("failed to release segmentation lock", "scope", scope, "error", err)
		}
	}()

	result, runErr := r.engine.Run(ctx, ownerID)

	outcome := "success"
	if runErr != nil {
		outcome = "error"
	}
	metrics.RecordRun(metricScope(ownerID), outcome, result.Segmented, result.Failed, result.Duration())

	report := Report{
		Result:  result,
		Scope:   scope,
		Elapsed: result.Duration().String(),
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.reports.Save(saveCtx, report); err != nil {
		r.logger.Warn("failed to save segmentation report", "scope", scope, "error", err)
	}

	return result, runErr
}

// metricScope keeps owner ids out of metric labels.
func metricScope(ownerID string) string {
	if ownerID == "" {
		return "all"
	}
	return "owner"
}
