// AngelaMos | 2026
// service.go

package subscriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a subscriber for the owner. New subscribers start unscored in
// the casual segment until the next segmentation run.
func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateSubscriberRequest,
) (*Subscriber, error) {
	if userID == "" {
		return nil, fmt.Errorf("create subscriber: %w", core.ErrUnauthorized)
	}

	source := req.Source
	if source == "" {
		source = SourceManual
	}

	sub := &Subscriber{
		ID:              uuid.New().String(),
		UserID:          userID,
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		Name:            req.Name,
		Phone:           req.Phone,
		Source:          source,
		Status:          StatusActive,
		EngagementScore: 0,
		FanSegment:      SegmentCasual,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	return sub, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (*Subscriber, error) {
	if userID == "" {
		return nil, fmt.Errorf("get subscriber: %w", core.ErrUnauthorized)
	}
	return s.repo.GetByID(ctx, userID, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListSubscribersParams,
) ([]Subscriber, int, error) {
	if params.UserID == "" {
		return nil, 0, fmt.Errorf("list subscribers: %w", core.ErrUnauthorized)
	}

	if params.Segment != "" && !FanSegment(params.Segment).Valid() {
		return nil, 0, fmt.Errorf(
			"list subscribers: invalid segment %q: %w",
			params.Segment,
			core.ErrInvalidInput,
		)
	}

	return s.repo.List(ctx, params)
}

func (s *Service) SegmentCounts(
	ctx context.Context,
	userID string,
) (map[FanSegment]int, error) {
	if userID == "" {
		return nil, fmt.Errorf("segment counts: %w", core.ErrUnauthorized)
	}
	return s.repo.CountBySegment(ctx, userID)
}
