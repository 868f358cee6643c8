// AngelaMos | 2026
// entity.go

package emaillist

import (
	"time"
)

type List struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Name            string    `db:"name"`
	Description     *string   `db:"description"`
	SubscriberCount int       `db:"subscriber_count"`
	CreatedAt       time.Time `db:"created_at"`
}

type CreateListRequest struct {
	Name        string  `json:"name"                  validate:"required,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

type AddMemberRequest struct {
	SubscriberID string `json:"subscriber_id" validate:"required,uuid"`
}

type ListResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	SubscriberCount int       `json:"subscriber_count"`
	CreatedAt       time.Time `json:"created_at"`
}

func ToListResponse(l *List) ListResponse {
	return ListResponse{
		ID:              l.ID,
		Name:            l.Name,
		Description:     l.Description,
		SubscriberCount: l.SubscriberCount,
		CreatedAt:       l.CreatedAt,
	}
}
