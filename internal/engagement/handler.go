// AngelaMos | 2026
// handler.go

package engagement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Post("/subscribers/{subscriberID}/events", h.Record)
}

func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	subscriberID := chi.URLParam(r, "subscriberID")
	if _, err := uuid.Parse(subscriberID); err != nil {
		core.NotFound(w, "subscriber")
		return
	}

	var req RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	event, err := h.service.Record(r.Context(), userID, subscriberID, req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "subscriber")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "event_data must be valid JSON")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToEventResponse(event))
}
