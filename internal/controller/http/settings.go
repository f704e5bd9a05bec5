package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fooodis/content-engine/internal/domain/settings/entity"
	"github.com/fooodis/content-engine/internal/httpx/response"
)

// SettingsService defines the interface for platform settings operations
type SettingsService interface {
	Get(ctx context.Context) (entity.Settings, error)
	Update(ctx context.Context, patch entity.Patch) (entity.Settings, error)
}

// SettingsHandler handles HTTP requests for platform settings
type SettingsHandler struct {
	svc SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(svc SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// RegisterRoutes registers settings routes
func (h *SettingsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.Get())
		r.Put("/", h.Update())
	})
}

// Get handles GET /settings. The API key never leaves the server, only its
// presence flag does.
func (h *SettingsHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		settings, err := h.svc.Get(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, settings.Masked())
	}
}

// Update handles PUT /settings
func (h *SettingsHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch entity.Patch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		settings, err := h.svc.Update(r.Context(), patch)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, settings.Masked())
	}
}
