package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fooodis/content-engine/internal/httpx/response"
)

// MaxUploadSize is the maximum allowed upload size (10MB)
const MaxUploadSize = 10 << 20

// MediaUploadInput represents input for media upload
type MediaUploadInput struct {
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string
	Folder      string
}

// MediaUploadOutput represents output from media upload
type MediaUploadOutput struct {
	URL  string
	Key  string
	Size int64
}

// MediaLibrary defines the interface for the image storage backing automation
// paths' media folders
type MediaLibrary interface {
	Upload(ctx context.Context, in MediaUploadInput) (*MediaUploadOutput, error)
	ListImages(ctx context.Context, folder string) ([]string, error)
}

// MediaHandler handles media library HTTP requests
type MediaHandler struct {
	library MediaLibrary
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(library MediaLibrary) *MediaHandler {
	return &MediaHandler{library: library}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Route("/media", func(r chi.Router) {
		r.Post("/upload", h.Upload())
		r.Get("/images", h.ListImages())
	})
}

// UploadResponse represents the response from upload endpoint
type UploadResponse struct {
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

// Upload handles POST /media/upload
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !isAllowedImageType(contentType) {
			response.BadRequest(w, fmt.Sprintf("unsupported media type: %s", contentType))
			return
		}

		result, err := h.library.Upload(r.Context(), MediaUploadInput{
			Reader:      file,
			ContentType: contentType,
			Size:        header.Size,
			Filename:    header.Filename,
			Folder:      r.FormValue("folder"),
		})
		if err != nil {
			response.InternalError(w, "failed to upload file")
			return
		}

		response.Created(w, UploadResponse{
			URL:  result.URL,
			Key:  result.Key,
			Size: result.Size,
		})
	}
}

// ImageListResponse represents the images under a media folder
type ImageListResponse struct {
	Folder string   `json:"folder"`
	Images []string `json:"images"`
	Total  int      `json:"total"`
}

// ListImages handles GET /media/images?folder=
func (h *MediaHandler) ListImages() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		folder := r.URL.Query().Get("folder")
		if folder == "" {
			response.BadRequest(w, "folder is required")
			return
		}

		images, err := h.library.ListImages(r.Context(), folder)
		if err != nil {
			response.InternalError(w, "failed to list media folder")
			return
		}

		response.OK(w, ImageListResponse{
			Folder: folder,
			Images: images,
			Total:  len(images),
		})
	}
}

// isAllowedImageType checks if the content type is allowed for upload. Posts
// only embed still images, video is rejected.
func isAllowedImageType(contentType string) bool {
	allowed := []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	for _, a := range allowed {
		if strings.EqualFold(contentType, a) {
			return true
		}
	}
	return false
}
