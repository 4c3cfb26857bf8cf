package handler

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pawprintclub/pawfeed/internal/model"
	"github.com/pawprintclub/pawfeed/internal/repository"
	"github.com/pawprintclub/pawfeed/internal/service"
	"github.com/pawprintclub/pawfeed/internal/validation"
)

// multipartFieldOverhead is headroom on top of the image size cap for the
// text fields and multipart framing.
const multipartFieldOverhead = 64 << 10

type FeedHandler struct {
	postService    *service.PostService
	uploadMaxBytes int64
	adminToken     string
}

func NewFeedHandler(postService *service.PostService, uploadMaxBytes int64, adminToken string) *FeedHandler {
	return &FeedHandler{
		postService:    postService,
		uploadMaxBytes: uploadMaxBytes,
		adminToken:     adminToken,
	}
}

type postResponse struct {
	ID        string    `json:"id"`
	PetName   string    `json:"petName"`
	PetType   string    `json:"petType"`
	Caption   string    `json:"caption"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Posts      []postResponse `json:"posts"`
	NextCursor *string        `json:"nextCursor"`
}

func (h *FeedHandler) toResponse(post *model.Post) postResponse {
	return postResponse{
		ID:        post.ID,
		PetName:   post.PetName,
		PetType:   post.PetType,
		Caption:   post.Caption,
		ImageURL:  h.postService.ImageURL(post),
		CreatedAt: post.CreatedAt(),
	}
}

// List handles GET /api/posts?limit&sort&q&cursor.
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err == nil {
			limit = n
		}
	}

	page, err := h.postService.List(r.Context(), limit, query.Get("sort"), query.Get("q"), query.Get("cursor"))
	if err != nil {
		slog.Error("failed to list posts", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	resp := listResponse{Posts: make([]postResponse, 0, len(page.Posts))}
	for _, post := range page.Posts {
		resp.Posts = append(resp.Posts, h.toResponse(post))
	}
	if page.NextCursor != "" {
		resp.NextCursor = &page.NextCursor
	}

	respondJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/posts (multipart: photo, petName, petType, caption).
func (h *FeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxBytes+multipartFieldOverhead)

	err := r.ParseMultipartForm(h.uploadMaxBytes + multipartFieldOverhead)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	files := r.MultipartForm.File["photo"]
	if len(files) != 1 {
		respondError(w, http.StatusBadRequest, "exactly one photo file is required")
		return
	}
	header := files[0]

	err = validation.ValidateImage(header, validation.ImageConstraints{MaxSize: h.uploadMaxBytes})
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrFileTooLarge):
			respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, validation.ErrUnsupportedFileType):
			respondError(w, http.StatusUnsupportedMediaType, err.Error())
		default:
			respondError(w, http.StatusBadRequest, "invalid photo upload")
		}
		return
	}

	file, err := header.Open()
	if err != nil {
		slog.Error("failed to open uploaded file", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to process upload")
		return
	}
	defer func() { _ = file.Close() }()

	post, err := h.postService.Create(r.Context(),
		r.FormValue("petName"),
		r.FormValue("petType"),
		r.FormValue("caption"),
		file, header,
	)
	if err != nil {
		slog.Error("failed to create post", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	slog.Info("post created", "post_id", post.ID, "pet_type", post.PetType)
	respondJSON(w, http.StatusCreated, map[string]postResponse{"post": h.toResponse(post)})
}

// Delete handles DELETE /api/posts/{id}. It requires the admin bearer
// token; deployments without a configured token have the endpoint
// disabled.
func (h *FeedHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" {
		respondError(w, http.StatusForbidden, "delete endpoint is disabled")
		return
	}

	token, ok := bearerToken(r)
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) != 1 {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "post id is required")
		return
	}

	post, err := h.postService.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrPostNotFound) {
		respondError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		slog.Error("failed to delete post", "error", err, "post_id", id)
		respondError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	slog.Info("post deleted", "post_id", post.ID)
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	return token, true
}
