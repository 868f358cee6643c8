// AngelaMos | 2026
// service.go

package engagement

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

// SubscriberLookup resolves a subscriber within an owner's scope.
type SubscriberLookup interface {
	Get(ctx context.Context, userID, id string) (*subscriber.Subscriber, error)
}

type RecordEventRequest struct {
	EventType  EventType       `json:"event_type"            validate:"required,oneof=email_open email_click purchase video_view video_share comment"`
	CampaignID *string         `json:"campaign_id,omitempty" validate:"omitempty,uuid"`
	EventData  json.RawMessage `json:"event_data,omitempty"`
}

type EventResponse struct {
	ID           string          `json:"id"`
	SubscriberID string          `json:"subscriber_id"`
	EventType    EventType       `json:"event_type"`
	CampaignID   *string         `json:"campaign_id,omitempty"`
	EventData    json.RawMessage `json:"event_data,omitempty"`
	CreatedAt    string          `json:"created_at"`
}

type Service struct {
	repo        Repository
	subscribers SubscriberLookup
}

func NewService(repo Repository, subscribers SubscriberLookup) *Service {
	return &Service{repo: repo, subscribers: subscribers}
}

func (s *Service) Record(
	ctx context.Context,
	userID, subscriberID string,
	req RecordEventRequest,
) (*Event, error) {
	if _, err := s.subscribers.Get(ctx, userID, subscriberID); err != nil {
		return nil, err
	}

	if len(req.EventData) > 0 && !json.Valid(req.EventData) {
		return nil, fmt.Errorf("record event: event_data: %w", core.ErrInvalidInput)
	}

	event := &Event{
		ID:           uuid.New().String(),
		SubscriberID: subscriberID,
		EventType:    req.EventType,
		CampaignID:   req.CampaignID,
		EventData:    []byte(req.EventData),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

func ToEventResponse(e *Event) EventResponse {
	return EventResponse{
		ID:           e.ID,
		SubscriberID: e.SubscriberID,
		EventType:    e.EventType,
		CampaignID:   e.CampaignID,
		EventData:    json.RawMessage(e.EventData),
		CreatedAt:    e.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
