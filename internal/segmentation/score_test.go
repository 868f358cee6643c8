// AngelaMos | 2026
// score_test.go

package segmentation

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/engagement"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ev(t engagement.EventType, age time.Duration) engagement.Event {
	return engagement.Event{
		EventType: t,
		EventData: types.JSONText(`{}`),
		CreatedAt: testNow.Add(-age),
	}
}

func purchase(amount string, age time.Duration) engagement.Event {
	e := ev(engagement.EventPurchase, age)
	e.EventData = types.JSONText(`{"amount":` + amount + `}`)
	return e
}

func repeat(n int, e engagement.Event) []engagement.Event {
	out := make([]engagement.Event, n)
	for i := range out {
		out[i] = e
	}
	return out
}

const day = 24 * time.Hour

func TestSummarize_EmptyHistory(t *testing.T) {
	s := Summarize(nil, testNow, DefaultRecencyWindow)

	assert.Equal(t, 0, s.Score)
	assert.Equal(t, subscriber.SegmentAtRisk, s.Segment)
	assert.Nil(t, s.LastEngagement)
	assert.Zero(t, s.PurchaseValue)
}

func TestSummarize_PurchaseAndEmailScenario(t *testing.T) {
	events := []engagement.Event{
		purchase("50", 2*day),
		ev(engagement.EventEmailOpen, 3*day),
		ev(engagement.EventEmailOpen, 4*day),
		ev(engagement.EventEmailClick, 5*day),
	}

	s := Summarize(events, testNow, DefaultRecencyWindow)

	assert.Equal(t, Counts{
		TotalEvents:  4,
		Purchases:    1,
		RecentEvents: 4,
		EmailOpens:   2,
		EmailClicks:  1,
	}, s.Counts)
	assert.Equal(t, 59, s.Score)
	assert.Equal(t, subscriber.SegmentEngaged, s.Segment)
	assert.InDelta(t, 50.0, s.PurchaseValue, 1e-9)
	require.NotNil(t, s.LastEngagement)
	assert.Equal(t, testNow.Add(-2*day), *s.LastEngagement)
}

func TestSummarize_VideoViewsClampToMax(t *testing.T) {
	events := repeat(10, ev(engagement.EventVideoView, day))

	s := Summarize(events, testNow, DefaultRecencyWindow)

	assert.Equal(t, 110, RawScore(s.Counts))
	assert.Equal(t, 100, s.Score)
	assert.Equal(t, subscriber.SegmentEngaged, s.Segment)
	assert.Zero(t, s.Purchases)
}

func TestSummarize_SuperfanTakesPriority(t *testing.T) {
	events := append(
		repeat(4, ev(engagement.EventComment, day)),
		purchase("5", day),
	)

	s := Summarize(events, testNow, DefaultRecencyWindow)

	assert.Equal(t, 5, s.RecentEvents)
	assert.Equal(t, 1, s.Purchases)
	assert.GreaterOrEqual(t, s.Score, 50)
	assert.Equal(t, subscriber.SegmentSuperfan, s.Segment)
}

func TestSummarize_RecencyBoundaryIsInclusive(t *testing.T) {
	window := DefaultRecencyWindow

	onEdge := Summarize(
		[]engagement.Event{ev(engagement.EventComment, window)},
		testNow, window,
	)
	assert.Equal(t, 1, onEdge.RecentEvents)

	pastEdge := Summarize(
		[]engagement.Event{ev(engagement.EventComment, window+time.Nanosecond)},
		testNow, window,
	)
	assert.Equal(t, 0, pastEdge.RecentEvents)
}

func TestSummarize_NonPositiveWindowUsesDefault(t *testing.T) {
	events := []engagement.Event{ev(engagement.EventComment, 29*day)}

	s := Summarize(events, testNow, 0)

	assert.Equal(t, 1, s.RecentEvents)
}

func TestSummarize_PurchaseAmounts(t *testing.T) {
	missing := ev(engagement.EventPurchase, day)
	nullData := ev(engagement.EventPurchase, day)
	nullData.EventData = nil
	text := ev(engagement.EventPurchase, day)
	text.EventData = types.JSONText(`{"amount":"12.50"}`)

	events := []engagement.Event{
		purchase("19.99", day),
		purchase("0.01", 40*day),
		missing,
		nullData,
		text,
	}

	s := Summarize(events, testNow, DefaultRecencyWindow)

	assert.Equal(t, 5, s.Purchases)
	assert.InDelta(t, 20.0, s.PurchaseValue, 1e-9)
}

func TestSummarize_LastEngagementIgnoresOrder(t *testing.T) {
	events := []engagement.Event{
		ev(engagement.EventEmailOpen, 10*day),
		ev(engagement.EventEmailOpen, time.Hour),
		ev(engagement.EventEmailOpen, 50*day),
	}

	s := Summarize(events, testNow, DefaultRecencyWindow)

	require.NotNil(t, s.LastEngagement)
	assert.Equal(t, testNow.Add(-time.Hour), *s.LastEngagement)
}

func TestSummarize_Idempotent(t *testing.T) {
	events := []engagement.Event{
		purchase("10", day),
		ev(engagement.EventVideoView, 3*day),
		ev(engagement.EventEmailClick, 45*day),
	}

	first := Summarize(events, testNow, DefaultRecencyWindow)
	second := Summarize(events, testNow, DefaultRecencyWindow)

	assert.Equal(t, first, second)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		score  int
		want   subscriber.FanSegment
	}{
		{
			name:   "superfan needs a purchase and five recent",
			counts: Counts{TotalEvents: 5, Purchases: 1, RecentEvents: 5},
			score:  55,
			want:   subscriber.SegmentSuperfan,
		},
		{
			name:   "purchase with four recent is not superfan",
			counts: Counts{TotalEvents: 4, Purchases: 1, RecentEvents: 4},
			score:  59,
			want:   subscriber.SegmentEngaged,
		},
		{
			name:   "engaged needs score 50",
			counts: Counts{TotalEvents: 3, RecentEvents: 3},
			score:  49,
			want:   subscriber.SegmentCasual,
		},
		{
			name:   "casual at score 20",
			counts: Counts{TotalEvents: 3},
			score:  20,
			want:   subscriber.SegmentCasual,
		},
		{
			name:   "no events is at risk",
			counts: Counts{},
			score:  0,
			want:   subscriber.SegmentAtRisk,
		},
		{
			name:   "low score is at risk",
			counts: Counts{TotalEvents: 1},
			score:  9,
			want:   subscriber.SegmentAtRisk,
		},
		{
			name:   "residual band lower edge is casual",
			counts: Counts{TotalEvents: 2},
			score:  10,
			want:   subscriber.SegmentCasual,
		},
		{
			name:   "residual band upper edge is casual",
			counts: Counts{TotalEvents: 2},
			score:  19,
			want:   subscriber.SegmentCasual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.counts, tt.score))
		})
	}
}

func TestSummarize_ResidualHistories(t *testing.T) {
	tests := []struct {
		name      string
		events    []engagement.Event
		wantScore int
		want      subscriber.FanSegment
	}{
		{
			name:      "two old opens",
			events:    repeat(2, ev(engagement.EventEmailOpen, 60*day)),
			wantScore: 10,
			want:      subscriber.SegmentCasual,
		},
		{
			name:      "one recent open",
			events:    []engagement.Event{ev(engagement.EventEmailOpen, day)},
			wantScore: 10,
			want:      subscriber.SegmentCasual,
		},
		{
			name:      "one recent comment",
			events:    []engagement.Event{ev(engagement.EventComment, day)},
			wantScore: 7,
			want:      subscriber.SegmentAtRisk,
		},
		{
			name:      "three old clicks",
			events:    repeat(3, ev(engagement.EventEmailClick, 60*day)),
			wantScore: 21,
			want:      subscriber.SegmentCasual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.events, testNow, DefaultRecencyWindow)
			assert.Equal(t, tt.wantScore, s.Score)
			assert.Equal(t, tt.want, s.Segment)
		})
	}
}

var randomTypes = []engagement.EventType{
	engagement.EventEmailOpen,
	engagement.EventEmailClick,
	engagement.EventPurchase,
	engagement.EventVideoView,
	engagement.EventVideoShare,
	engagement.EventComment,
}

func randomHistory(r *rand.Rand) []engagement.Event {
	n := r.IntN(40)
	events := make([]engagement.Event, n)
	for i := range events {
		age := time.Duration(r.IntN(90*24)) * time.Hour
		events[i] = ev(randomTypes[r.IntN(len(randomTypes))], age)
	}
	return events
}

func TestSummarize_ScoreBoundsAndPurchaseMonotonicity(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 500; i++ {
		events := randomHistory(r)
		base := Summarize(events, testNow, DefaultRecencyWindow)

		assert.GreaterOrEqual(t, base.Score, MinScore)
		assert.LessOrEqual(t, base.Score, MaxScore)
		assert.True(t, base.Segment.Valid())

		age := time.Duration(r.IntN(90*24)) * time.Hour
		more := Summarize(append(events, purchase("1", age)), testNow, DefaultRecencyWindow)

		assert.GreaterOrEqual(t, more.Score, base.Score)
	}
}

func TestSummary_Update(t *testing.T) {
	last := testNow.Add(-day)
	s := Summary{
		Counts:         Counts{EmailOpens: 3, EmailClicks: 2},
		Score:          42,
		Segment:        subscriber.SegmentCasual,
		PurchaseValue:  9.5,
		LastEngagement: &last,
	}

	u := s.Update(testNow)

	assert.Equal(t, 42, u.EngagementScore)
	assert.Equal(t, subscriber.SegmentCasual, u.FanSegment)
	assert.Equal(t, 3, u.TotalOpens)
	assert.Equal(t, 2, u.TotalClicks)
	assert.InDelta(t, 9.5, u.PurchaseValue, 1e-9)
	assert.Equal(t, &last, u.LastEngagement)
	assert.Equal(t, testNow, u.UpdatedAt)
}
