// AngelaMos | 2026
// handler_test.go

package emaillist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/middleware"
)

func TestHandler_AddMember_MalformedListID(t *testing.T) {
	db, mock := setupMockDB(t)
	h := NewHandler(NewService(db, NewRepository(db), discardLogger()))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("listID", "vip-list")

	req := httptest.NewRequest(http.MethodPost, "/v1/lists/vip-list/subscribers",
		strings.NewReader(`{"subscriber_id":"0b7e4f2a-9c1d-4e6b-8a3f-5c2d7e9f1a4b"}`))
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithClaims(ctx, &middleware.AccessTokenClaims{
		UserID: "6f1c2b9e-3a4d-4c8e-9b7a-2d5e8f0a1b3c",
		Role:   middleware.RoleUser,
	})

	rec := httptest.NewRecorder()
	h.AddMember(rec, req.WithContext(ctx))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
