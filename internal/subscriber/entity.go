// AngelaMos | 2026
// entity.go

package subscriber

import (
	"time"
)

// FanSegment is the engagement tier assigned by the segmentation engine.
type FanSegment string

const (
	SegmentSuperfan FanSegment = "superfan"
	SegmentEngaged  FanSegment = "engaged"
	SegmentCasual   FanSegment = "casual"
	SegmentAtRisk   FanSegment = "at_risk"
)

// Segments lists every segment in display order.
var Segments = []FanSegment{
	SegmentSuperfan,
	SegmentEngaged,
	SegmentCasual,
	SegmentAtRisk,
}

func (s FanSegment) Valid() bool {
	switch s {
	case SegmentSuperfan, SegmentEngaged, SegmentCasual, SegmentAtRisk:
		return true
	}
	return false
}

type Subscriber struct {
	ID              string     `db:"id"`
	UserID          string     `db:"user_id"`
	Email           string     `db:"email"`
	Name            *string    `db:"name"`
	Phone           *string    `db:"phone"`
	Source          string     `db:"source"`
	Status          string     `db:"status"`
	EngagementScore int        `db:"engagement_score"`
	FanSegment      FanSegment `db:"fan_segment"`
	TotalOpens      int        `db:"total_opens"`
	TotalClicks     int        `db:"total_clicks"`
	PurchaseValue   float64    `db:"purchase_value"`
	LastEngagement  *time.Time `db:"last_engagement"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (s *Subscriber) IsActive() bool {
	return s.Status == StatusActive
}

// EngagementUpdate holds the summary fields owned by the segmentation engine.
type EngagementUpdate struct {
	EngagementScore int
	FanSegment      FanSegment
	TotalOpens      int
	TotalClicks     int
	PurchaseValue   float64
	LastEngagement  *time.Time
	UpdatedAt       time.Time
}

const (
	StatusActive       = "active"
	StatusInactive     = "inactive"
	StatusUnsubscribed = "unsubscribed"
)

const (
	SourceManual    = "manual"
	SourceYouTube   = "youtube"
	SourceTikTok    = "tiktok"
	SourceInstagram = "instagram"
	SourceWebsite   = "website"
)
