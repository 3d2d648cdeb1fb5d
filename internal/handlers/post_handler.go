package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const postNotFound = "post not found or access denied"

// PostService is the interface that wraps methods for Posts business logic.
type PostService interface {
	// Method List returns the posts visible to the session: its own posts, or every post for an admin.
	List(ctx context.Context, session *models.Session) ([]models.Post, error)
	// Method Get retrieves a post by slug.
	//
	// Missing posts and posts owned by another user both fail with common.ErrNotFoundOrForbidden.
	Get(ctx context.Context, session *models.Session, slug string) (*models.Post, error)
	// Method Create stores a new post owned by the session user and derives its slug from the title.
	//
	// If title, excerpt or content is missing, common.ErrInvalidInput is returned.
	Create(ctx context.Context, session *models.Session, draft *models.PostDraft) (*models.Post, error)
	// Method Update applies a partial update. The slug never changes.
	Update(ctx context.Context, session *models.Session, slug string, patch *models.PostPatch) (*models.Post, error)
	// Method Delete removes a post and reports whether it was removed.
	Delete(ctx context.Context, session *models.Session, slug string) (bool, error)
}

// PostHandler handles HTTP requests for posts
type PostHandler struct {
	BaseHandler
	service  PostService
	authMw   func(http.Handler) http.Handler
	comments *PostCommentHandler
}

// NewPostHandler creates a new post handler
func NewPostHandler(service PostService, logger *zap.Logger, authMw func(http.Handler) http.Handler) *PostHandler {
	return &PostHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
		authMw:      authMw,
	}
}

// RegisterRoutes registers all post handler routes
// Note: This assumes the router is already scoped to /api
func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Route("/posts", func(r chi.Router) {
		r.Use(h.authMw)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{slug}", h.Get)
		r.Put("/{slug}", h.Update)
		r.Delete("/{slug}", h.Delete)

		if h.comments != nil {
			r.Route("/{slug}/comments", h.comments.RegisterRoutes)
		}
	})
}

// WithComments serves the comment threads of posts under /posts/{slug}/comments
func (h *PostHandler) WithComments(comments *PostCommentHandler) *PostHandler {
	h.comments = comments
	return h
}

// List handles GET /posts
// @Summary List posts
// @Description List the posts of the current user, or every post for an admin
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Post
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Router /posts [get]
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.List(r.Context(), session(r))
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, posts)
}

// Get handles GET /posts/{slug}
// @Summary Get post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} map[string]string "Post not found or access denied"
// @Router /posts/{slug} [get]
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.Get(r.Context(), session(r), chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, post)
}

// Create handles POST /posts
// @Summary Create post
// @Description Create a post owned by the current user. The slug is derived from the title.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.PostDraft true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} map[string]string "Title, excerpt and content are required"
// @Router /posts [post]
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.PostDraft
	if err := h.DecodeJSON(r, &draft); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.service.Create(r.Context(), session(r), &draft)
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	h.RespondJSON(w, http.StatusCreated, post)
}

// Update handles PUT /posts/{slug}
// @Summary Update post
// @Description Update the fields present in the body
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body models.PostPatch true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 404 {object} map[string]string "Post not found or access denied"
// @Router /posts/{slug} [put]
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.PostPatch
	if err := h.DecodeJSON(r, &patch); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.service.Update(r.Context(), session(r), chi.URLParam(r, "slug"), &patch)
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, post)
}

// Delete handles DELETE /posts/{slug}
// @Summary Delete post
// @Tags posts
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 204
// @Failure 404 {object} map[string]string "Post not found or access denied"
// @Router /posts/{slug} [delete]
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), session(r), chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	if !deleted {
		h.RespondError(w, http.StatusNotFound, postNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
