package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fooodis/content-engine/internal/domain/post/entity"
	"github.com/fooodis/content-engine/internal/domain/post/policy"
	"github.com/fooodis/content-engine/internal/httpx/response"
)

// ScheduledPostPolicy defines the interface for scheduled post operations
type ScheduledPostPolicy interface {
	PublishScheduledPost(ctx context.Context, id, source string) (*policy.PublishScheduledOutput, error)
	GetScheduledPost(ctx context.Context, id string) (*entity.ScheduledPost, error)
	GetScheduledPostHistory(ctx context.Context, id string) ([]entity.HistoryEvent, error)
}

// ScheduledPostHandler handles HTTP requests for the scheduled post state machine
type ScheduledPostHandler struct {
	policy ScheduledPostPolicy
}

// NewScheduledPostHandler creates a new scheduled post handler
func NewScheduledPostHandler(p ScheduledPostPolicy) *ScheduledPostHandler {
	return &ScheduledPostHandler{policy: p}
}

// RegisterRoutes registers scheduled post routes
func (h *ScheduledPostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/scheduled-posts", func(r chi.Router) {
		r.Post("/{id}/publish", h.Publish())
		r.Get("/{id}", h.Get())
		r.Get("/{id}/history", h.History())
	})
}

// PublishRequest represents the request body for publishing a scheduled post
type PublishRequest struct {
	Source string `json:"source"` // manual, scheduler; defaults to manual
}

// Publish handles POST /scheduled-posts/{id}/publish
func (h *ScheduledPostHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		source := "manual"
		if r.Body != nil && r.ContentLength > 0 {
			var req PublishRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.BadRequest(w, "invalid JSON")
				return
			}
			if req.Source != "" {
				source = req.Source
			}
		}

		out, err := h.policy.PublishScheduledPost(r.Context(), id, source)
		if err != nil {
			// An already-published post answers with its existing blog post id
			// instead of a duplicate
			if errors.Is(err, entity.ErrAlreadyPublished) {
				response.ConflictJSON(w, out)
				return
			}
			handleDomainError(w, err)
			return
		}

		response.OK(w, out)
	}
}

// Get handles GET /scheduled-posts/{id}
func (h *ScheduledPostHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		sp, err := h.policy.GetScheduledPost(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, sp)
	}
}

// HistoryResponse represents the event trail of a scheduled post
type HistoryResponse struct {
	Events []entity.HistoryEvent `json:"events"`
	Total  int                   `json:"total"`
}

// History handles GET /scheduled-posts/{id}/history
func (h *ScheduledPostHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		events, err := h.policy.GetScheduledPostHistory(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, HistoryResponse{
			Events: events,
			Total:  len(events),
		})
	}
}
