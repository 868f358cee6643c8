// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/segmentation"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubReports struct {
	report *segmentation.Report
	err    error
}

func (s stubReports) Last(context.Context) (*segmentation.Report, error) {
	return s.report, s.err
}

func TestGetSystemStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DB:    stubPinger{},
		Redis: stubPinger{err: errors.New("down")},
		DBStats: func() sql.DBStats {
			return sql.DBStats{MaxOpenConnections: 25, OpenConnections: 3, InUse: 1, Idle: 2}
		},
		BreakerState: func() string { return "closed" },
	})

	rec := httptest.NewRecorder()
	h.GetSystemStats(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Data.Database.Healthy)
	require.NotNil(t, body.Data.Database.Stats)
	assert.Equal(t, 25, body.Data.Database.Stats.MaxOpenConnections)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Nil(t, body.Data.Redis.Stats)
	require.NotNil(t, body.Data.Segmentation)
	assert.Equal(t, "closed", body.Data.Segmentation.EventStoreBreaker)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}

func TestGetLastRun(t *testing.T) {
	finished := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	report := &segmentation.Report{
		Result: segmentation.Result{
			TotalSubscribers: 3,
			Segmented:        2,
			Failed:           1,
			StartedAt:        finished.Add(-5 * time.Second),
			FinishedAt:       finished,
		},
		Scope:   "all",
		Elapsed: "5s",
	}

	tests := []struct {
		name       string
		reports    stubReports
		wantStatus int
	}{
		{name: "found", reports: stubReports{report: report}, wantStatus: http.StatusOK},
		{
			name:       "never ran",
			reports:    stubReports{err: fmt.Errorf("last report: %w", core.ErrNotFound)},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "redis error",
			reports:    stubReports{err: errors.New("i/o timeout")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(HandlerConfig{Reports: tt.reports})

			rec := httptest.NewRecorder()
			h.GetLastRun(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/segmentation/last-run", nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var body struct {
				Data map[string]any `json:"data"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "all", body.Data["scope"])
			assert.Equal(t, "5s", body.Data["duration"])
			assert.EqualValues(t, 2, body.Data["segmented"])
		})
	}
}
