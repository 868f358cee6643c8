// AngelaMos | 2026
// repository.go

package engagement

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

type Repository interface {
	ListBySubscriber(ctx context.Context, subscriberID string) ([]Event, error)
	Create(ctx context.Context, event *Event) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

// ListBySubscriber loads the full history for one subscriber.
func (r *repository) ListBySubscriber(
	ctx context.Context,
	subscriberID string,
) ([]Event, error) {
	query := `
		SELECT id, subscriber_id, event_type, campaign_id,
		       COALESCE(event_data, '{}'::jsonb) AS event_data, created_at
		FROM subscriber_engagement
		WHERE subscriber_id = $1`

	var events []Event
	if err := r.db.SelectContext(ctx, &events, query, subscriberID); err != nil {
		return nil, fmt.Errorf("list engagement events: %w", err)
	}

	return events, nil
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	query := `
		INSERT INTO subscriber_engagement (id, subscriber_id, event_type, campaign_id, event_data)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	data := event.EventData
	if len(data) == 0 {
		data = []byte("{}")
	}

	err := r.db.GetContext(ctx, &event.CreatedAt, query,
		event.ID,
		event.SubscriberID,
		event.EventType,
		event.CampaignID,
		data,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("create engagement event: %w", core.ErrNotFound)
		}
		return fmt.Errorf("create engagement event: %w", err)
	}

	return nil
}

func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
