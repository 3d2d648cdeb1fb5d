package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const commentNotFound = "comment not found or access denied"

// PostCommentService is the interface that wraps methods for post comment business logic.
type PostCommentService interface {
	// Method List returns the comments on a post, oldest first.
	//
	// If the post is missing or the session may not access it, common.ErrNotFoundOrForbidden is returned.
	List(ctx context.Context, session *models.Session, slug string) ([]models.PostComment, error)
	// Method Create adds a comment by the session user.
	//
	// If the content is blank or too long, common.ErrInvalidInput is returned.
	Create(ctx context.Context, session *models.Session, slug string, draft *models.PostCommentDraft) (*models.PostComment, error)
	// Method Delete removes a comment. Only its author or an admin may do so.
	Delete(ctx context.Context, session *models.Session, slug, id string) (bool, error)
}

// PostCommentHandler handles HTTP requests for post comments
type PostCommentHandler struct {
	BaseHandler
	service PostCommentService
}

// NewPostCommentHandler creates a new post comment handler
func NewPostCommentHandler(service PostCommentService, logger *zap.Logger) *PostCommentHandler {
	return &PostCommentHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
	}
}

// RegisterRoutes registers the comment routes.
// Note: This assumes the router is already scoped to /posts/{slug}/comments and authenticated
func (h *PostCommentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Delete("/{id}", h.Delete)
}

// List handles GET /posts/{slug}/comments
// @Summary List post comments
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 200 {array} models.PostComment
// @Failure 404 {object} map[string]string "Post not found or access denied"
// @Router /posts/{slug}/comments [get]
func (h *PostCommentHandler) List(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.List(r.Context(), session(r), chi.URLParam(r, "slug"))
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, comments)
}

// Create handles POST /posts/{slug}/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body models.PostCommentDraft true "Comment"
// @Success 201 {object} models.PostComment
// @Failure 400 {object} map[string]string "Content is required"
// @Failure 404 {object} map[string]string "Post not found or access denied"
// @Router /posts/{slug}/comments [post]
func (h *PostCommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.PostCommentDraft
	if err := h.DecodeJSON(r, &draft); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.service.Create(r.Context(), session(r), chi.URLParam(r, "slug"), &draft)
	if err != nil {
		h.RespondServiceError(w, r, err, postNotFound)
		return
	}
	h.RespondJSON(w, http.StatusCreated, comment)
}

// Delete handles DELETE /posts/{slug}/comments/{id}
// @Summary Delete a comment
// @Description Only the comment author or an admin may delete it
// @Tags comments
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param id path string true "Comment ID"
// @Success 204
// @Failure 404 {object} map[string]string "Comment not found or access denied"
// @Router /posts/{slug}/comments/{id} [delete]
func (h *PostCommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), session(r), chi.URLParam(r, "slug"), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, commentNotFound)
		return
	}
	if !deleted {
		h.RespondError(w, http.StatusNotFound, commentNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
