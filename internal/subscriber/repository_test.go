// AngelaMos | 2026
// repository_test.go

package subscriber

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var subscriberCols = []string{
	"id", "user_id", "email", "name", "phone", "source", "status",
	"engagement_score", "fan_segment", "total_opens", "total_clicks",
	"purchase_value", "last_engagement", "created_at", "updated_at",
}

func subscriberRow(rows *sqlmock.Rows, id, owner string) *sqlmock.Rows {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, owner, id+"@example.com", nil, nil, SourceManual, StatusActive,
		0, "casual", 0, 0, 0.0, nil, now, now,
	)
}

func TestRepository_ListForSegmentation_AllOwners(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows(subscriberCols)
	subscriberRow(rows, "s1", "u1")
	subscriberRow(rows, "s2", "u2")
	mock.ExpectQuery(`FROM subscribers$`).WillReturnRows(rows)

	subs, err := repo.ListForSegmentation(context.Background(), "")
	require.NoError(t, err)

	assert.Len(t, subs, 2)
	assert.Equal(t, SegmentCasual, subs[0].FanSegment)
	assert.Nil(t, subs[0].LastEngagement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListForSegmentation_ScopedToOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	rows := sqlmock.NewRows(subscriberCols)
	subscriberRow(rows, "s1", "u1")
	mock.ExpectQuery(`FROM subscribers WHERE user_id = \$1`).
		WithArgs("u1").
		WillReturnRows(rows)

	subs, err := repo.ListForSegmentation(context.Background(), "u1")
	require.NoError(t, err)

	assert.Len(t, subs, 1)
	assert.Equal(t, "u1", subs[0].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateEngagement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	last := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE subscribers SET engagement_score = \$2`).
		WithArgs("s1", 59, "engaged", 2, 1, 50.0, last, updated).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateEngagement(context.Background(), "s1", EngagementUpdate{
		EngagementScore: 59,
		FanSegment:      SegmentEngaged,
		TotalOpens:      2,
		TotalClicks:     1,
		PurchaseValue:   50,
		LastEngagement:  &last,
		UpdatedAt:       updated,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateEngagement_MissingRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE subscribers`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEngagement(context.Background(), "gone", EngagementUpdate{
		FanSegment: SegmentAtRisk,
		UpdatedAt:  time.Now(),
	})

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_CountBySegment_ZeroFills(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`GROUP BY fan_segment`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"fan_segment", "count"}).
			AddRow("engaged", 4).
			AddRow("at_risk", 1))

	counts, err := repo.CountBySegment(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, map[FanSegment]int{
		SegmentSuperfan: 0,
		SegmentEngaged:  4,
		SegmentCasual:   0,
		SegmentAtRisk:   1,
	}, counts)
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`INSERT INTO subscribers`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &Subscriber{
		ID:         "s1",
		UserID:     "u1",
		Email:      "fan@example.com",
		Source:     SourceManual,
		Status:     StatusActive,
		FanSegment: SegmentCasual,
	})

	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`WHERE id = \$1 AND user_id = \$2`).
		WithArgs("s1", "u1").
		WillReturnRows(sqlmock.NewRows(subscriberCols))

	_, err := repo.GetByID(context.Background(), "u1", "s1")

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepository_List_Filters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM subscribers WHERE user_id = \$1 AND fan_segment = \$2 AND \(email ILIKE \$3 OR name ILIKE \$3\)`).
		WithArgs("u1", "superfan", "%50\\%%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := sqlmock.NewRows(subscriberCols)
	subscriberRow(rows, "s1", "u1")
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$4 OFFSET \$5`).
		WithArgs("u1", "superfan", "%50\\%%", 10, 10).
		WillReturnRows(rows)

	subs, total, err := repo.List(context.Background(), ListSubscribersParams{
		UserID:   "u1",
		Page:     2,
		PageSize: 10,
		Segment:  "superfan",
		Search:   "50%",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, total)
	assert.Len(t, subs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
