// AngelaMos | 2026
// repository.go

package emaillist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

type Repository interface {
	Create(ctx context.Context, list *List) error
	GetByID(ctx context.Context, userID, id string) (*List, error)
	ListByOwner(ctx context.Context, userID string) ([]List, error)
	ListIDs(ctx context.Context) ([]string, error)
	CountMembers(ctx context.Context, listID string) (int, error)
	UpdateSubscriberCount(ctx context.Context, listID string, count int) error
	SubscriberOwned(ctx context.Context, userID, subscriberID string) (bool, error)
	AddMember(ctx context.Context, listID, subscriberID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, list *List) error {
	query := `
		INSERT INTO email_lists (id, user_id, name, description, subscriber_count)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING created_at`

	if err := r.db.GetContext(ctx, &list.CreatedAt, query,
		list.ID,
		list.UserID,
		list.Name,
		list.Description,
	); err != nil {
		return fmt.Errorf("create list: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, userID, id string) (*List, error) {
	query := `
		SELECT id, user_id, name, description, subscriber_count, created_at
		FROM email_lists
		WHERE id = $1 AND user_id = $2`

	var list List
	err := r.db.GetContext(ctx, &list, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get list: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}

	return &list, nil
}

func (r *repository) ListByOwner(ctx context.Context, userID string) ([]List, error) {
	query := `
		SELECT id, user_id, name, description, subscriber_count, created_at
		FROM email_lists
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var lists []List
	if err := r.db.SelectContext(ctx, &lists, query, userID); err != nil {
		return nil, fmt.Errorf("list email lists: %w", err)
	}

	return lists, nil
}

func (r *repository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM email_lists`); err != nil {
		return nil, fmt.Errorf("list email list ids: %w", err)
	}
	return ids, nil
}

func (r *repository) CountMembers(ctx context.Context, listID string) (int, error) {
	query := `SELECT COUNT(*) FROM email_list_subscribers WHERE list_id = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, listID); err != nil {
		return 0, fmt.Errorf("count list members: %w", err)
	}

	return count, nil
}

func (r *repository) UpdateSubscriberCount(
	ctx context.Context,
	listID string,
	count int,
) error {
	query := `UPDATE email_lists SET subscriber_count = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, listID, count)
	if err != nil {
		return fmt.Errorf("update subscriber count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subscriber count: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update subscriber count: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) SubscriberOwned(
	ctx context.Context,
	userID, subscriberID string,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM subscribers WHERE id = $1 AND user_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, subscriberID, userID); err != nil {
		return false, fmt.Errorf("check subscriber owner: %w", err)
	}

	return exists, nil
}

// AddMember is a no-op when the subscriber is already on the list.
func (r *repository) AddMember(ctx context.Context, listID, subscriberID string) error {
	query := `
		INSERT INTO email_list_subscribers (list_id, subscriber_id)
		VALUES ($1, $2)
		ON CONFLICT (list_id, subscriber_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, listID, subscriberID); err != nil {
		return fmt.Errorf("add list member: %w", err)
	}

	return nil
}
