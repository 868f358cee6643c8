// AngelaMos | 2026
// score.go

package segmentation

import (
	"time"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/engagement"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

const (
	DefaultRecencyWindow = 30 * 24 * time.Hour

	MaxScore = 100
	MinScore = 0
)

const (
	weightEvent      = 2
	weightPurchase   = 20
	weightRecent     = 5
	weightEmailOpen  = 3
	weightEmailClick = 5
	weightVideoView  = 4
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Counts are the per-history tallies the score is built from.
type Counts struct {
	TotalEvents  int
	Purchases    int
	RecentEvents int
	EmailOpens   int
	EmailClicks  int
	VideoViews   int
}

// Summary is everything the engine writes back for one subscriber.
type Summary struct {
	Counts
	Score          int
	Segment        subscriber.FanSegment
	PurchaseValue  float64
	LastEngagement *time.Time
}

// Update converts the summary into the subscriber store's write shape.
func (s Summary) Update(now time.Time) subscriber.EngagementUpdate {
	return subscriber.EngagementUpdate{
		EngagementScore: s.Score,
		FanSegment:      s.Segment,
		TotalOpens:      s.EmailOpens,
		TotalClicks:     s.EmailClicks,
		PurchaseValue:   s.PurchaseValue,
		LastEngagement:  s.LastEngagement,
		UpdatedAt:       now,
	}
}

// Summarize folds a full event history into a Summary. An event is recent
// when created_at >= now-window. The result depends only on its arguments.
func Summarize(events []engagement.Event, now time.Time, window time.Duration) Summary {
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	cutoff := now.Add(-window)

	var s Summary
	for i := range events {
		e := &events[i]

		s.TotalEvents++
		if !e.CreatedAt.Before(cutoff) {
			s.RecentEvents++
		}

		switch e.EventType {
		case engagement.EventPurchase:
			s.Purchases++
			s.PurchaseValue += e.Amount()
		case engagement.EventEmailOpen:
			s.EmailOpens++
		case engagement.EventEmailClick:
			s.EmailClicks++
		case engagement.EventVideoView:
			s.VideoViews++
		}

		if s.LastEngagement == nil || e.CreatedAt.After(*s.LastEngagement) {
			ts := e.CreatedAt
			s.LastEngagement = &ts
		}
	}

	s.Score = Clamp(RawScore(s.Counts))
	s.Segment = Classify(s.Counts, s.Score)

	return s
}

func RawScore(c Counts) int {
	return c.TotalEvents*weightEvent +
		c.Purchases*weightPurchase +
		c.RecentEvents*weightRecent +
		c.EmailOpens*weightEmailOpen +
		c.EmailClicks*weightEmailClick +
		c.VideoViews*weightVideoView
}

func Clamp(score int) int {
	return min(MaxScore, max(MinScore, score))
}

// Classify picks the first matching segment in priority order. A subscriber
// with some history and a score in [10, 20) matches no threshold and is
// treated as casual.
func Classify(c Counts, score int) subscriber.FanSegment {
	switch {
	case c.Purchases > 0 && c.RecentEvents >= 5:
		return subscriber.SegmentSuperfan
	case c.RecentEvents >= 3 && score >= 50:
		return subscriber.SegmentEngaged
	case c.TotalEvents > 0 && score >= 20:
		return subscriber.SegmentCasual
	case c.TotalEvents == 0 || score < 10:
		return subscriber.SegmentAtRisk
	default:
		return subscriber.SegmentCasual
	}
}
