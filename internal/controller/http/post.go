package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fooodis/content-engine/internal/domain/post/entity"
	"github.com/fooodis/content-engine/internal/domain/post/service"
	"github.com/fooodis/content-engine/internal/httpx/response"
)

// PostPolicy defines the interface for blog post read operations
type PostPolicy interface {
	ListPosts(ctx context.Context, in service.ListInput) (*service.ListOutput, error)
	GetPostBySlug(ctx context.Context, slug string) (*entity.BlogPost, error)
	RecordView(ctx context.Context, id string) error
	RatePost(ctx context.Context, id string, rating int) (*entity.BlogPost, error)
	ListCategories(ctx context.Context) ([]entity.Category, error)
}

// PostHandler handles HTTP requests for published blog posts
type PostHandler struct {
	policy PostPolicy
}

// NewPostHandler creates a new post handler
func NewPostHandler(p PostPolicy) *PostHandler {
	return &PostHandler{policy: p}
}

// RegisterRoutes registers post routes
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/{slug}", h.GetBySlug())
		r.Post("/{id}/view", h.RecordView())
		r.Post("/{id}/rating", h.Rate())
	})
	r.Get("/categories", h.ListCategories())
}

// PostListResponse represents the response for listing posts
type PostListResponse struct {
	Posts  []entity.BlogPost `json:"posts"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// List handles GET /posts
func (h *PostHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 20
		offset := 0
		if l := q.Get("limit"); l != "" {
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
		if o := q.Get("offset"); o != "" {
			oi, err := strconv.Atoi(o)
			if err != nil || oi < 0 {
				response.BadRequest(w, "invalid offset")
				return
			}
			offset = oi
		}

		out, err := h.policy.ListPosts(r.Context(), service.ListInput{
			Category: q.Get("category"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, PostListResponse{
			Posts:  out.Posts,
			Total:  out.Total,
			Limit:  limit,
			Offset: offset,
		})
	}
}

// GetBySlug handles GET /posts/{slug}
func (h *PostHandler) GetBySlug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		post, err := h.policy.GetPostBySlug(r.Context(), slug)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, post)
	}
}

// RecordView handles POST /posts/{id}/view
func (h *PostHandler) RecordView() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := h.policy.RecordView(r.Context(), id); err != nil {
			handleDomainError(w, err)
			return
		}

		response.NoContent(w)
	}
}

// RateRequest represents the request body for rating a post
type RateRequest struct {
	Rating int `json:"rating"` // 1-5
}

// RateResponse represents the post's rating after a new vote
type RateResponse struct {
	PostID        string  `json:"post_id"`
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}

// Rate handles POST /posts/{id}/rating
func (h *PostHandler) Rate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req RateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}

		post, err := h.policy.RatePost(r.Context(), id, req.Rating)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, RateResponse{
			PostID:        post.ID,
			AverageRating: post.AverageRating(),
			RatingCount:   post.RatingCount,
		})
	}
}

// CategoryListResponse represents the response for listing categories
type CategoryListResponse struct {
	Categories []entity.Category `json:"categories"`
	Total      int               `json:"total"`
}

// ListCategories handles GET /categories
func (h *PostHandler) ListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := h.policy.ListCategories(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, CategoryListResponse{
			Categories: categories,
			Total:      len(categories),
		})
	}
}
