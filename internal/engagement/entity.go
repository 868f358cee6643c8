// AngelaMos | 2026
// entity.go

package engagement

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type EventType string

const (
	EventEmailOpen  EventType = "email_open"
	EventEmailClick EventType = "email_click"
	EventPurchase   EventType = "purchase"
	EventVideoView  EventType = "video_view"
	EventVideoShare EventType = "video_share"
	EventComment    EventType = "comment"
)

// Event is one append-only interaction attributed to a subscriber.
type Event struct {
	ID           string         `db:"id"`
	SubscriberID string         `db:"subscriber_id"`
	EventType    EventType      `db:"event_type"`
	CampaignID   *string        `db:"campaign_id"`
	EventData    types.JSONText `db:"event_data"`
	CreatedAt    time.Time      `db:"created_at"`
}

type purchasePayload struct {
	Amount *float64 `json:"amount"`
}

// Amount is the numeric amount carried in the payload. Missing, null or
// non-numeric amounts count as zero.
func (e *Event) Amount() float64 {
	if len(e.EventData) == 0 {
		return 0
	}

	var p purchasePayload
	if err := e.EventData.Unmarshal(&p); err != nil || p.Amount == nil {
		return 0
	}

	return *p.Amount
}
