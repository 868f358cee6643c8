// AngelaMos | 2026
// service.go

package emaillist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

type Service struct {
	db      core.TxBeginner
	repo    Repository
	newRepo func(core.DBTX) Repository
	logger  *slog.Logger
}

func NewService(db core.TxBeginner, repo Repository, logger *slog.Logger) *Service {
	return &Service{
		db:      db,
		repo:    repo,
		newRepo: NewRepository,
		logger:  logger,
	}
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateListRequest,
) (*List, error) {
	if userID == "" {
		return nil, fmt.Errorf("create list: %w", core.ErrUnauthorized)
	}

	list := &List{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.repo.Create(ctx, list); err != nil {
		return nil, err
	}

	return list, nil
}

func (s *Service) ListByOwner(ctx context.Context, userID string) ([]List, error) {
	if userID == "" {
		return nil, fmt.Errorf("list email lists: %w", core.ErrUnauthorized)
	}
	return s.repo.ListByOwner(ctx, userID)
}

// AddMember puts a subscriber on one of the owner's lists and refreshes the
// list count in the same transaction.
func (s *Service) AddMember(
	ctx context.Context,
	userID, listID, subscriberID string,
) (*List, error) {
	var list *List

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repo := s.newRepo(tx)

		l, err := repo.GetByID(ctx, userID, listID)
		if err != nil {
			return err
		}

		owned, err := repo.SubscriberOwned(ctx, userID, subscriberID)
		if err != nil {
			return err
		}
		if !owned {
			return fmt.Errorf("add member: subscriber: %w", core.ErrNotFound)
		}

		if err := repo.AddMember(ctx, listID, subscriberID); err != nil {
			return err
		}

		count, err := repo.CountMembers(ctx, listID)
		if err != nil {
			return err
		}

		if err := repo.UpdateSubscriberCount(ctx, listID, count); err != nil {
			return err
		}

		l.SubscriberCount = count
		list = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	return list, nil
}

// RecountAll rewrites subscriber_count for every list from current
// membership. A list that fails is logged and skipped; the returned count is
// the number of lists written.
func (s *Service) RecountAll(ctx context.Context) (int, error) {
	ids, err := s.repo.ListIDs(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}

		count, err := s.repo.CountMembers(ctx, id)
		if err != nil {
			s.logger.Error("failed to count list members", "list_id", id, "error", err)
			continue
		}

		if err := s.repo.UpdateSubscriberCount(ctx, id, count); err != nil {
			s.logger.Error("failed to update list count", "list_id", id, "error", err)
			continue
		}

		updated++
	}

	return updated, nil
}
