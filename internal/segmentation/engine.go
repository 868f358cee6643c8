// AngelaMos | 2026
// engine.go

package segmentation

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/config"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/engagement"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/metrics"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

const (
	breakerName = "engagement-events"

	// halfOpenWait is how long a worker waits for the half-open trial
	// request to settle before asking the breaker again.
	halfOpenWait = 10 * time.Millisecond
)

var ErrFetchSubscribers = errors.New("failed to fetch subscribers")

type SubscriberStore interface {
	ListForSegmentation(ctx context.Context, userID string) ([]subscriber.Subscriber, error)
	UpdateEngagement(ctx context.Context, id string, u subscriber.EngagementUpdate) error
}

type EventStore interface {
	ListBySubscriber(ctx context.Context, subscriberID string) ([]engagement.Event, error)
}

type ListCounter interface {
	RecountAll(ctx context.Context) (int, error)
}

// Result is the outcome of one run.
type Result struct {
	OwnerID          string    `json:"owner_id,omitempty"`
	TotalSubscribers int       `json:"total_subscribers"`
	Segmented        int       `json:"segmented"`
	Failed           int       `json:"failed"`
	ListsRecounted   int       `json:"lists_recounted"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type Engine struct {
	subscribers SubscriberStore
	events      EventStore
	lists       ListCounter
	breaker     *gobreaker.CircuitBreaker[[]engagement.Event]
	clock       Clock
	tracer      trace.Tracer
	logger      *slog.Logger
	workers     int
	window      time.Duration
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

func NewEngine(
	subscribers SubscriberStore,
	events EventStore,
	lists ListCounter,
	cfg config.SegmentationConfig,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		subscribers: subscribers,
		events:      events,
		lists:       lists,
		clock:       SystemClock{},
		tracer:      core.Tracer("segmentation"),
		logger:      logger,
		workers:     max(1, cfg.Workers),
		window:      cfg.RecencyWindow,
	}

	if e.window <= 0 {
		e.window = DefaultRecencyWindow
	}

	e.breaker = newBreaker(cfg, logger)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func newBreaker(
	cfg config.SegmentationConfig,
	logger *slog.Logger,
) *gobreaker.CircuitBreaker[[]engagement.Event] {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	return gobreaker.NewCircuitBreaker[[]engagement.Event](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return !storeUnavailable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.RecordBreakerState(name, int(to))
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
}

// storeUnavailable reports whether err means the event store itself cannot
// be reached. Query-level failures such as statement timeouts, bad input or
// scan errors belong to one subscriber and never trip the breaker.
func storeUnavailable(err error) bool {
	if err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// fetchEvents reads one history through the breaker. While the breaker is
// half-open only the trial request passes, so the other workers wait for
// its outcome instead of failing their subscriber.
func (e *Engine) fetchEvents(ctx context.Context, subscriberID string) ([]engagement.Event, error) {
	for {
		events, err := e.breaker.Execute(func() ([]engagement.Event, error) {
			return e.events.ListBySubscriber(ctx, subscriberID)
		})
		if !errors.Is(err, gobreaker.ErrTooManyRequests) {
			return events, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(halfOpenWait):
		}
	}
}

// BreakerState reports the event-store breaker as closed, half-open or open.
func (e *Engine) BreakerState() string {
	return e.breaker.State().String()
}

// Run segments every subscriber, or only ownerID's when it is non-empty.
// Per-subscriber failures are logged and counted; they never abort the run.
// Cancelling ctx stops new work from being dispatched.
func (e *Engine) Run(ctx context.Context, ownerID string) (Result, error) {
	ctx, span := e.tracer.Start(ctx, "segmentation.run",
		trace.WithAttributes(attribute.String("owner_id", ownerID)),
	)
	defer span.End()

	result := Result{
		OwnerID:   ownerID,
		StartedAt: e.clock.Now(),
	}

	subs, err := e.subscribers.ListForSegmentation(ctx, ownerID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("%w: %w", ErrFetchSubscribers, err)
	}

	result.TotalSubscribers = len(subs)
	if len(subs) == 0 {
		result.FinishedAt = e.clock.Now()
		e.logger.Info("no subscribers found to segment", "owner_id", ownerID)
		return result, nil
	}

	var (
		segmented atomic.Int64
		failed    atomic.Int64
		wg        sync.WaitGroup
	)

	sem := make(chan struct{}, e.workers)

dispatch:
	for i := range subs {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(sub *subscriber.Subscriber) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := e.segmentOne(ctx, sub); err != nil {
				failed.Add(1)
				e.logger.Error("failed to segment subscriber",
					"subscriber_id", sub.ID,
					"email", sub.Email,
					"error", err,
				)
				return
			}
			segmented.Add(1)
		}(&subs[i])
	}

	wg.Wait()

	result.Segmented = int(segmented.Load())
	result.Failed = int(failed.Load())

	if err := ctx.Err(); err != nil {
		result.FinishedAt = e.clock.Now()
		span.SetStatus(codes.Error, "cancelled")
		return result, fmt.Errorf("segmentation interrupted: %w", err)
	}

	lists, err := e.lists.RecountAll(ctx)
	if err != nil {
		e.logger.Error("failed to recount list subscribers", "error", err)
	}
	result.ListsRecounted = lists
	result.FinishedAt = e.clock.Now()

	span.SetAttributes(
		attribute.Int("subscribers.total", result.TotalSubscribers),
		attribute.Int("subscribers.segmented", result.Segmented),
		attribute.Int("subscribers.failed", result.Failed),
	)

	e.logger.Info("segmentation completed",
		"owner_id", ownerID,
		"segmented", result.Segmented,
		"total", result.TotalSubscribers,
		"failed", result.Failed,
		"lists", result.ListsRecounted,
		"duration", result.Duration().String(),
	)

	return result, nil
}

func (e *Engine) segmentOne(ctx context.Context, sub *subscriber.Subscriber) error {
	ctx, span := e.tracer.Start(ctx, "segmentation.subscriber",
		trace.WithAttributes(attribute.String("subscriber.id", sub.ID)),
	)
	defer span.End()

	events, err := e.fetchEvents(ctx, sub.ID)
	if err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("fetch events: %w", err)
	}

	now := e.clock.Now()
	summary := Summarize(events, now, e.window)

	if err := e.subscribers.UpdateEngagement(ctx, sub.ID, summary.Update(now)); err != nil {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("update subscriber: %w", err)
	}

	span.SetAttributes(
		attribute.Int("engagement.score", summary.Score),
		attribute.String("engagement.segment", string(summary.Segment)),
	)
	metrics.RecordSegment(string(summary.Segment))

	return nil
}
