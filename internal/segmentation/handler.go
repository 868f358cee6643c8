// AngelaMos | 2026
// handler.go

package segmentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/fan-segmenter/internal/core"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/middleware"
	"github.com/carterperez-dev/templates/fan-segmenter/internal/subscriber"
)

const (
	maxRunBodyBytes = 1 << 20

	messageCompleted     = "Auto-segmentation completed successfully"
	messageNoSubscribers = "No subscribers found to segment"
)

type SegmentCounter interface {
	SegmentCounts(ctx context.Context, userID string) (map[subscriber.FanSegment]int, error)
}

type RunRequest struct {
	UserID string `json:"userId"`
}

type RunResponse struct {
	Message          string    `json:"message"`
	TotalSubscribers int       `json:"totalSubscribers"`
	Segmented        int       `json:"segmented"`
	Timestamp        time.Time `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatsResponse struct {
	Segments map[subscriber.FanSegment]int `json:"segments"`
	Total    int                           `json:"total"`
}

type Handler struct {
	trigger Trigger
	counter SegmentCounter
	clock   Clock
}

func NewHandler(trigger Trigger, counter SegmentCounter) *Handler {
	return &Handler{
		trigger: trigger,
		counter: counter,
		clock:   SystemClock{},
	}
}

// RegisterRoutes mounts the run trigger and stats. runLimiter is applied to
// the trigger only.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	runLimiter func(http.Handler) http.Handler,
) {
	r.Route("/segmentation", func(r chi.Router) {
		r.Use(authenticator)

		r.With(runLimiter).Post("/run", h.Run)
		r.Get("/stats", h.Stats)
	})
}

// Run triggers a segmentation pass. An empty body runs every owner the caller
// may run; a user-role caller is limited to their own subscribers.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		core.JSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if req.UserID != "" {
		if _, err := uuid.Parse(req.UserID); err != nil {
			core.JSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId must be a UUID"})
			return
		}
	}

	ownerID, ok := resolveOwner(r.Context(), req.UserID)
	if !ok {
		core.JSON(w, http.StatusForbidden, ErrorResponse{
			Error: "not allowed to segment another user's subscribers",
		})
		return
	}

	result, err := h.trigger.Trigger(r.Context(), ownerID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRunning):
			core.JSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrFetchSubscribers):
			core.JSON(w, http.StatusInternalServerError, ErrorResponse{
				Error: "Failed to fetch subscribers",
			})
		default:
			core.JSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		}
		return
	}

	message := messageCompleted
	if result.TotalSubscribers == 0 {
		message = messageNoSubscribers
	}

	ts := result.FinishedAt
	if ts.IsZero() {
		ts = h.clock.Now()
	}

	core.JSON(w, http.StatusOK, RunResponse{
		Message:          message,
		TotalSubscribers: result.TotalSubscribers,
		Segmented:        result.Segmented,
		Timestamp:        ts,
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	if q := r.URL.Query().Get("userId"); q != "" && middleware.IsPrivileged(r.Context()) {
		ownerID = q
	}

	if ownerID != "" {
		if _, err := uuid.Parse(ownerID); err != nil {
			core.JSON(w, http.StatusBadRequest, ErrorResponse{Error: "userId must be a UUID"})
			return
		}
	}

	counts, err := h.counter.SegmentCounts(r.Context(), ownerID)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			core.JSONError(w, core.UnauthorizedError("owner required"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	core.OK(w, StatsResponse{Segments: counts, Total: total})
}

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (RunRequest, error) {
	var req RunRequest
	if r.Body == nil {
		return req, nil
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRunBodyBytes))
	if err != nil {
		return req, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}

	return req, nil
}

// resolveOwner returns the scope the caller is allowed to run. Admin and
// service callers may run any scope, including everyone.
func resolveOwner(ctx context.Context, requested string) (string, bool) {
	if middleware.IsPrivileged(ctx) {
		return requested, true
	}

	self := middleware.GetUserID(ctx)
	if requested == "" || requested == self {
		return self, self != ""
	}

	return "", false
}
