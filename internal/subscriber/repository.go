// AngelaMos | 2026
// repository.go

package subscriber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscriber) error
	GetByID(ctx context.Context, userID, id string) (*Subscriber, error)
	List(ctx context.Context, params ListSubscribersParams) ([]Subscriber, int, error)
	ListForSegmentation(ctx context.Context, userID string) ([]Subscriber, error)
	UpdateEngagement(ctx context.Context, id string, u EngagementUpdate) error
	CountBySegment(ctx context.Context, userID string) (map[FanSegment]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const subscriberColumns = `id, user_id, email, name, phone, source, status,
		       engagement_score, fan_segment, total_opens, total_clicks,
		       purchase_value, last_engagement, created_at, updated_at`

func (r *repository) Create(ctx context.Context, sub *Subscriber) error {
	query := `
		INSERT INTO subscribers (id, user_id, email, name, phone, source, status,
		                         engagement_score, fan_segment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, sub, query,
		sub.ID,
		sub.UserID,
		sub.Email,
		sub.Name,
		sub.Phone,
		sub.Source,
		sub.Status,
		sub.EngagementScore,
		sub.FanSegment,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create subscriber: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create subscriber: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	userID, id string,
) (*Subscriber, error) {
	query := `
		SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE id = $1 AND user_id = $2`

	var sub Subscriber
	err := r.db.GetContext(ctx, &sub, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscriber: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}

	return &sub, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListSubscribersParams,
) ([]Subscriber, int, error) {
	params.Normalize()

	conditions := []string{"user_id = $1"}
	args := []any{params.UserID}
	argIdx := 2

	if params.Segment != "" {
		conditions = append(conditions, fmt.Sprintf("fan_segment = $%d", argIdx))
		args = append(args, params.Segment)
		argIdx++
	}

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM subscribers WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT `+subscriberColumns+`
		FROM subscribers
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var subs []Subscriber
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}

	return subs, total, nil
}

// ListForSegmentation returns every subscriber, or only those owned by userID
// when it is non-empty. Order is left to the database.
func (r *repository) ListForSegmentation(
	ctx context.Context,
	userID string,
) ([]Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers`
	var args []any

	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}

	var subs []Subscriber
	if err := r.db.SelectContext(ctx, &subs, query, args...); err != nil {
		return nil, fmt.Errorf("list subscribers for segmentation: %w", err)
	}

	return subs, nil
}

func (r *repository) UpdateEngagement(
	ctx context.Context,
	id string,
	u EngagementUpdate,
) error {
	query := `
		UPDATE subscribers
		SET engagement_score = $2,
		    fan_segment = $3,
		    total_opens = $4,
		    total_clicks = $5,
		    purchase_value = $6,
		    last_engagement = $7,
		    updated_at = $8
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id,
		u.EngagementScore,
		u.FanSegment,
		u.TotalOpens,
		u.TotalClicks,
		u.PurchaseValue,
		u.LastEngagement,
		u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("update engagement: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountBySegment(
	ctx context.Context,
	userID string,
) (map[FanSegment]int, error) {
	query := `
		SELECT fan_segment, COUNT(*) AS count
		FROM subscribers
		WHERE user_id = $1
		GROUP BY fan_segment`

	var rows []struct {
		Segment FanSegment `db:"fan_segment"`
		Count   int        `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("count by segment: %w", err)
	}

	counts := make(map[FanSegment]int, len(Segments))
	for _, seg := range Segments {
		counts[seg] = 0
	}
	for _, row := range rows {
		counts[row.Segment] = row.Count
	}

	return counts, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
