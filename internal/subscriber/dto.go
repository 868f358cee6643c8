// AngelaMos | 2026
// dto.go

package subscriber

import (
	"time"
)

type CreateSubscriberRequest struct {
	Email  string  `json:"email"            validate:"required,email,max=255"`
	Name   *string `json:"name,omitempty"   validate:"omitempty,min=1,max=100"`
	Phone  *string `json:"phone,omitempty"  validate:"omitempty,max=32"`
	Source string  `json:"source,omitempty" validate:"omitempty,oneof=manual youtube tiktok instagram website"`
}

type SubscriberResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            *string    `json:"name,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Source          string     `json:"source"`
	Status          string     `json:"status"`
	FanSegment      FanSegment `json:"fan_segment"`
	EngagementScore int        `json:"engagement_score"`
	TotalOpens      int        `json:"total_opens"`
	TotalClicks     int        `json:"total_clicks"`
	PurchaseValue   float64    `json:"purchase_value"`
	LastEngagement  *time.Time `json:"last_engagement,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type ListSubscribersParams struct {
	UserID   string
	Page     int
	PageSize int
	Segment  string
	Status   string
	Search   string
}

func (p *ListSubscribersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListSubscribersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToSubscriberResponse(s *Subscriber) SubscriberResponse {
	return SubscriberResponse{
		ID:              s.ID,
		Email:           s.Email,
		Name:            s.Name,
		Phone:           s.Phone,
		Source:          s.Source,
		Status:          s.Status,
		FanSegment:      s.FanSegment,
		EngagementScore: s.EngagementScore,
		TotalOpens:      s.TotalOpens,
		TotalClicks:     s.TotalClicks,
		PurchaseValue:   s.PurchaseValue,
		LastEngagement:  s.LastEngagement,
		CreatedAt:       s.CreatedAt,
	}
}

func ToSubscriberResponseList(subs []Subscriber) []SubscriberResponse {
	responses := make([]SubscriberResponse, 0, len(subs))
	for i := range subs {
		responses = append(responses, ToSubscriberResponse(&subs[i]))
	}
	return responses
}
