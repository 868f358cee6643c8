// AngelaMos | 2026
// report.go

package segmentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

const lastRunKey = "segmenter:segmentation:last_run"

// Report is the persisted summary of the most recent run.
type Report struct {
	Result
	Scope   string `json:"scope"`
	Error   string `json:"error,omitempty"`
	Elapsed string `json:"duration"`
}

type ReportStore interface {
	Save(ctx context.Context, report Report) error
	Last(ctx context.Context) (*Report, error)
}

type RedisReportStore struct {
	client *redis.Client
}

func NewRedisReportStore(client *redis.Client) *RedisReportStore {
	return &RedisReportStore{client: client}
}

func (s *RedisReportStore) Save(ctx context.Context, report Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode run report: %w", err)
	}

	if err := s.client.Set(ctx, lastRunKey, data, 0).Err(); err != nil {
		return fmt.Errorf("save run report: %w", err)
	}

	return nil
}

// Last returns core.ErrNotFound until a run has been recorded.
func (s *RedisReportStore) Last(ctx context.Context) (*Report, error) {
	data, err := s.client.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("last run report: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load run report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode run report: %w", err)
	}

	return &report, nil
}
