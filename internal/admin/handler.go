// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/segmentation"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type ReportReader interface {
	Last(ctx context.Context) (*segmentation.Report, error)
}

type Handler struct {
	db           Pinger
	redis        Pinger
	dbStats      func() sql.DBStats
	redisStats   func() *redis.PoolStats
	breakerState func() string
	reports      ReportReader
}

// HandlerConfig wires the admin handler. Nil stats funcs are omitted from
// responses.
type HandlerConfig struct {
	DB           Pinger
	Redis        Pinger
	DBStats      func() sql.DBStats
	RedisStats   func() *redis.PoolStats
	BreakerState func() string
	Reports      ReportReader
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		db:           cfg.DB,
		redis:        cfg.Redis,
		dbStats:      cfg.DBStats,
		redisStats:   cfg.RedisStats,
		breakerState: cfg.BreakerState,
		reports:      cfg.Reports,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/segmentation/last-run", h.GetLastRun)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.db),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.redis),
			Stats:   h.getRedisStats(),
		},
		Runtime: RuntimeStats{
			GoVersion:    runtime.Version(),
			NumGoroutine: runtime.NumGoroutine(),
			NumCPU:       runtime.NumCPU(),
			MemAlloc:     memStats.Alloc,
			MemSys:       memStats.Sys,
			NumGC:        memStats.NumGC,
		},
	}

	if h.breakerState != nil {
		response.Segmentation = &SegmentationStatus{
			EventStoreBreaker: h.breakerState(),
		}
	}

	core.OK(w, response)
}

func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Last(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "segmentation run")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, report)
}

func pingOK(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	return p.Ping(ctx) == nil
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type SystemStatsResponse struct {
	Database     DatabaseStatus      `json:"database"`
	Redis        RedisStatus         `json:"redis"`
	Runtime      RuntimeStats        `json:"runtime"`
	Segmentation *SegmentationStatus `json:"segmentation,omitempty"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type SegmentationStatus struct {
	EventStoreBreaker string `json:"event_store_breaker"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
