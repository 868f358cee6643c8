// AngelaMos | 2026
// handler.go

package emaillist

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
	r.Route("/lists", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/{listID}/subscribers", h.AddMember)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.service.ListByOwner(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	resp := make([]ListResponse, 0, len(lists))
	for i := range lists {
		resp = append(resp, ToListResponse(&lists[i]))
	}

	core.OK(w, resp)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	list, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToListResponse(list))
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	if _, err := uuid.Parse(listID); err != nil {
		core.NotFound(w, "list")
		return
	}

	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	list, err := h.service.AddMember(
		r.Context(),
		middleware.GetUserID(r.Context()),
		listID,
		req.SubscriberID,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "list or subscriber")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToListResponse(list))
}
