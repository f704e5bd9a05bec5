package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fooodis/content-engine/internal/domain/automation/dao"
	"github.com/fooodis/content-engine/internal/domain/automation/entity"
	"github.com/fooodis/content-engine/internal/domain/automation/policy"
	"github.com/fooodis/content-engine/internal/domain/automation/service"
	"github.com/fooodis/content-engine/internal/httpx/response"
)

// AutomationPolicy defines the interface for automation path operations
// Interface is defined by consumer (handler), not provider (policy)
type AutomationPolicy interface {
	CreatePath(ctx context.Context, in service.CreateInput) (*entity.AutomationPath, error)
	GetPath(ctx context.Context, id string) (*entity.AutomationPath, error)
	UpdatePath(ctx context.Context, in service.UpdateInput) (*entity.AutomationPath, error)
	ListPaths(ctx context.Context, filter dao.PathFilter, includeStats bool) ([]service.PathWithStats, error)
	RunPathNow(ctx context.Context, id string) (*policy.RunNowOutput, error)
	CloseRunLog(ctx context.Context, logID string, result entity.CloseResult) (*entity.GenerationLog, error)
	GetLog(ctx context.Context, id string) (*entity.GenerationLog, error)
	ListPathLogs(ctx context.Context, pathID string, limit int) ([]entity.GenerationLog, error)
	GetDailyUsage(ctx context.Context, date string) (*entity.DailyUsage, error)
}

// AutomationHandler handles HTTP requests for automation paths
type AutomationHandler struct {
	policy AutomationPolicy
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(p AutomationPolicy) *AutomationHandler {
	return &AutomationHandler{policy: p}
}

// RegisterRoutes registers automation routes
func (h *AutomationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/automation", func(r chi.Router) {
		r.Route("/paths", func(r chi.Router) {
			r.Post("/", h.Create())
			r.Get("/", h.List())
			r.Get("/{id}", h.Get())
			r.Patch("/{id}", h.Update())
			r.Post("/{id}/run", h.RunNow())
			r.Patch("/{id}/run", h.CloseRun())
			r.Get("/{id}/logs", h.ListLogs())
		})
		r.Get("/logs/{id}", h.GetLog())
		r.Get("/usage", h.DailyUsage())
	})
}

// CreatePathRequest represents the request body for creating an automation path
type CreatePathRequest struct {
	Name           string   `json:"name"`
	ContentType    string   `json:"content_type"`
	AssistantID    string   `json:"assistant_id"`
	Category       string   `json:"category"`
	Subcategory    string   `json:"subcategory"`
	Topics         []string `json:"topics"`
	Mode           string   `json:"mode"`          // schedule, manual
	ScheduleType   string   `json:"schedule_type"` // daily, weekly, monthly
	ScheduleTime   string   `json:"schedule_time"` // HH:MM
	ScheduleDay    int      `json:"schedule_day"`
	PromptTemplate string   `json:"prompt_template"`
	IncludeImages  bool     `json:"include_images"`
	MediaFolder    string   `json:"media_folder"`
	Languages      []string `json:"languages"`
}

// Create handles POST /automation/paths
func (h *AutomationHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePathRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.Name == "" {
			response.BadRequest(w, "name is required")
			return
		}

		path, err := h.policy.CreatePath(r.Context(), service.CreateInput{
			Name:           req.Name,
			ContentType:    req.ContentType,
			AssistantID:    req.AssistantID,
			Category:       req.Category,
			Subcategory:    req.Subcategory,
			Topics:         req.Topics,
			Mode:           entity.PathMode(req.Mode),
			ScheduleType:   entity.ScheduleType(req.ScheduleType),
			ScheduleTime:   req.ScheduleTime,
			ScheduleDay:    req.ScheduleDay,
			PromptTemplate: req.PromptTemplate,
			IncludeImages:  req.IncludeImages,
			MediaFolder:    req.MediaFolder,
			Languages:      req.Languages,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.Created(w, path)
	}
}

// PathListResponse represents the response for listing automation paths
type PathListResponse struct {
	Paths []service.PathWithStats `json:"paths"`
	Total int                     `json:"total"`
}

// List handles GET /automation/paths
func (h *AutomationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var filter dao.PathFilter
		if s := q.Get("status"); s != "" {
			status, err := parsePathStatus(s)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			filter.Status = &status
		}
		filter.Category = q.Get("category")
		filter.ContentType = q.Get("content_type")

		includeStats := q.Get("include_stats") == "true"

		paths, err := h.policy.ListPaths(r.Context(), filter, includeStats)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, PathListResponse{
			Paths: paths,
			Total: len(paths),
		})
	}
}

// Get handles GET /automation/paths/{id}
func (h *AutomationHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		path, err := h.policy.GetPath(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, path)
	}
}

// UpdatePathRequest represents the request body for updating an automation path
type UpdatePathRequest struct {
	Name           *string  `json:"name,omitempty"`
	ContentType    *string  `json:"content_type,omitempty"`
	AssistantID    *string  `json:"assistant_id,omitempty"`
	Category       *string  `json:"category,omitempty"`
	Subcategory    *string  `json:"subcategory,omitempty"`
	Topics         []string `json:"topics,omitempty"`
	Mode           *string  `json:"mode,omitempty"`
	ScheduleType   *string  `json:"schedule_type,omitempty"`
	ScheduleTime   *string  `json:"schedule_time,omitempty"`
	ScheduleDay    *int     `json:"schedule_day,omitempty"`
	PromptTemplate *string  `json:"prompt_template,omitempty"`
	IncludeImages  *bool    `json:"include_images,omitempty"`
	MediaFolder    *string  `json:"media_folder,omitempty"`
	Languages      []string `json:"languages,omitempty"`
	Status         *string  `json:"status,omitempty"`
}

// Update handles PATCH /automation/paths/{id}
func (h *AutomationHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req UpdatePathRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		in := service.UpdateInput{
			ID:             id,
			Name:           req.Name,
			ContentType:    req.ContentType,
			AssistantID:    req.AssistantID,
			Category:       req.Category,
			Subcategory:    req.Subcategory,
			Topics:         req.Topics,
			ScheduleTime:   req.ScheduleTime,
			ScheduleDay:    req.ScheduleDay,
			PromptTemplate: req.PromptTemplate,
			IncludeImages:  req.IncludeImages,
			MediaFolder:    req.MediaFolder,
			Languages:      req.Languages,
		}
		if req.Mode != nil {
			mode := entity.PathMode(*req.Mode)
			in.Mode = &mode
		}
		if req.ScheduleType != nil {
			st := entity.ScheduleType(*req.ScheduleType)
			in.ScheduleType = &st
		}
		if req.Status != nil {
			status := entity.PathStatus(*req.Status)
			in.Status = &status
		}

		path, err := h.policy.UpdatePath(r.Context(), in)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, path)
	}
}

// RunNow handles POST /automation/paths/{id}/run
func (h *AutomationHandler) RunNow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		out, err := h.policy.RunPathNow(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, out)
	}
}

// CloseRunRequest represents the request body for closing a manual run's log
type CloseRunRequest struct {
	LogID            string  `json:"log_id"`
	Status           string  `json:"status"` // completed, failed
	GeneratedTitle   *string `json:"generated_title,omitempty"`
	GeneratedContent *string `json:"generated_content,omitempty"`
	GeneratedExcerpt *string `json:"generated_excerpt,omitempty"`
	TokensUsed       *int    `json:"tokens_used,omitempty"`
	GenerationTimeMS *int64  `json:"generation_time_ms,omitempty"`
	PublishedPostID  *string `json:"published_post_id,omitempty"`
	ModelUsed        *string `json:"model_used,omitempty"`
	PromptUsed       *string `json:"prompt_used,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
}

// CloseRun handles PATCH /automation/paths/{id}/run
func (h *AutomationHandler) CloseRun() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CloseRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		if req.LogID == "" {
			response.BadRequest(w, "log_id is required")
			return
		}

		status, err := parseLogStatus(req.Status)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		log, err := h.policy.CloseRunLog(r.Context(), req.LogID, entity.CloseResult{
			Status:           status,
			GeneratedTitle:   req.GeneratedTitle,
			GeneratedContent: req.GeneratedContent,
			GeneratedExcerpt: req.GeneratedExcerpt,
			TokensUsed:       req.TokensUsed,
			GenerationTimeMS: req.GenerationTimeMS,
			PublishedPostID:  req.PublishedPostID,
			ModelUsed:        req.ModelUsed,
			PromptUsed:       req.PromptUsed,
			ErrorMessage:     req.ErrorMessage,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, log)
	}
}

// LogListResponse represents the response for listing generation logs
type LogListResponse struct {
	Logs  []entity.GenerationLog `json:"logs"`
	Total int                    `json:"total"`
}

// ListLogs handles GET /automation/paths/{id}/logs
func (h *AutomationHandler) ListLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		limit := 50
		if l := r.URL.Query().Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			if li > 100 {
				li = 100
			}
			limit = li
		}

		logs, err := h.policy.ListPathLogs(r.Context(), id, limit)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, LogListResponse{
			Logs:  logs,
			Total: len(logs),
		})
	}
}

// GetLog handles GET /automation/logs/{id}
func (h *AutomationHandler) GetLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		log, err := h.policy.GetLog(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, log)
	}
}

// DailyUsage handles GET /automation/usage?date=YYYY-MM-DD
func (h *AutomationHandler) DailyUsage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			response.BadRequest(w, "date is required, use YYYY-MM-DD")
			return
		}

		usage, err := h.policy.GetDailyUsage(r.Context(), date)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if usage == nil {
			usage = &entity.DailyUsage{Date: date}
		}

		response.OK(w, usage)
	}
}

// Helper functions

func parsePathStatus(s string) (entity.PathStatus, error) {
	switch s {
	case "active":
		return entity.PathStatusActive, nil
	case "inactive":
		return entity.PathStatusInactive, nil
	case "paused":
		return entity.PathStatusPaused, nil
	default:
		return "", entity.ErrInvalidPathStatus
	}
}

func parseLogStatus(s string) (entity.LogStatus, error) {
	switch s {
	case "completed":
		return entity.LogStatusCompleted, nil
	case "failed":
		return entity.LogStatusFailed, nil
	default:
		return "", entity.ErrInvalidLogStatus
	}
}
