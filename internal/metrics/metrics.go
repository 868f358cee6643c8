// AngelaMos | 2026
// metrics.go

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SegmentationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmentation_runs_total",
			Help: "Segmentation runs by outcome",
		},
		[]string{"scope", "outcome"},
	)

	SegmentationRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "segmentation_run_duration_seconds",
			Help:    "Wall time of a full segmentation run",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	SubscribersSegmented = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segmentation_subscribers_segmented_total",
			Help: "Subscribers whose engagement summary was written",
		},
	)

	SubscribersFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "segmentation_subscribers_failed_total",
			Help: "Subscribers skipped because a read or write failed",
		},
	)

	SegmentAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "segmentation_segment_assignments_total",
			Help: "Segment labels written, by segment",
		},
		[]string{"segment"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	RateLimitFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_fallbacks_total",
			Help: "Decisions made by the in-process limiter because redis failed",
		},
		[]string{"limiter"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// RecordRun records the outcome of one segmentation run.
func RecordRun(scope, outcome string, segmented, failed int, duration time.Duration) {
	SegmentationRuns.WithLabelValues(scope, outcome).Inc()
	SegmentationRunDuration.Observe(duration.Seconds())
	SubscribersSegmented.Add(float64(segmented))
	SubscribersFailed.Add(float64(failed))
}

func RecordSegment(segment string) {
	SegmentAssignments.WithLabelValues(segment).Inc()
}

// RecordBreakerState maps gobreaker's state ordering (closed, half-open,
// open) onto the gauge.
func RecordBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

func RecordHTTPRequest(method string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func RecordRateLimited(limiter string) {
	RateLimited.WithLabelValues(limiter).Inc()
}

func RecordRateLimitFallback(limiter string) {
	RateLimitFallbacks.WithLabelValues(limiter).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
