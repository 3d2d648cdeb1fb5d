package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const memoNotFound = "memo task not found or access denied"

// MemoService is the interface that wraps methods for MemoTasks business logic.
type MemoService interface {
	// Method List returns the memo tasks visible to the session.
	List(ctx context.Context, session *models.Session) ([]models.MemoTask, error)
	// Method Get retrieves a memo task by ID.
	//
	// Missing tasks and tasks owned by another user both fail with common.ErrNotFoundOrForbidden.
	Get(ctx context.Context, session *models.Session, id string) (*models.MemoTask, error)
	// Method Create stores a new memo task owned by the session user.
	//
	// If title or date is missing, common.ErrInvalidInput is returned.
	Create(ctx context.Context, session *models.Session, draft *models.MemoDraft) (*models.MemoTask, error)
	// Method Update applies a partial update. Unknown enum values are ignored.
	Update(ctx context.Context, session *models.Session, id string, patch *models.MemoPatch) (*models.MemoTask, error)
	// Method SetStatus changes only the status of a memo task.
	//
	// If "status" is neither todo nor done, common.ErrInvalidInput is returned.
	SetStatus(ctx context.Context, session *models.Session, id string, status string) (*models.MemoTask, error)
	// Method Delete removes a memo task and reports whether it was removed.
	Delete(ctx context.Context, session *models.Session, id string) (bool, error)
}

// MemoHandler handles HTTP requests for memo tasks
type MemoHandler struct {
	BaseHandler
	service MemoService
	authMw  func(http.Handler) http.Handler
}

// NewMemoHandler creates a new memo task handler
func NewMemoHandler(service MemoService, logger *zap.Logger, authMw func(http.Handler) http.Handler) *MemoHandler {
	return &MemoHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
		authMw:      authMw,
	}
}

// RegisterRoutes registers all memo task handler routes
func (h *MemoHandler) RegisterRoutes(r chi.Router) {
	r.Route("/memo-tasks", func(r chi.Router) {
		r.Use(h.authMw)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.SetStatus)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /memo-tasks
// @Summary List memo tasks
// @Description List memo tasks ordered by date
// @Tags memo-tasks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.MemoTask
// @Router /memo-tasks [get]
func (h *MemoHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context(), session(r))
	if err != nil {
		h.RespondServiceError(w, r, err, memoNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, tasks)
}

// Get handles GET /memo-tasks/{id}
// @Summary Get memo task
// @Tags memo-tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memo task ID"
// @Success 200 {object} models.MemoTask
// @Failure 404 {object} map[string]string "Memo task not found or access denied"
// @Router /memo-tasks/{id} [get]
func (h *MemoHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.Get(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, memoNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, task)
}

// Create handles POST /memo-tasks
// @Summary Create memo task
// @Tags memo-tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.MemoDraft true "Memo task"
// @Success 201 {object} models.MemoTask
// @Failure 400 {object} map[string]string "Title and date are required"
// @Router /memo-tasks [post]
func (h *MemoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.MemoDraft
	if err := h.DecodeJSON(r, &draft); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.Create(r.Context(), session(r), &draft)
	if err != nil {
		h.RespondServiceError(w, r, err, memoNotFound)
		return
	}
	h.RespondJSON(w, http.StatusCreated, task)
}

// Update handles PUT /memo-tasks/{id}
// @Summary Update memo task
// @Tags memo-tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memo task ID"
// @Param request body models.MemoPatch true "Fields to change"
// @Success 200 {object} models.MemoTask
// @Failure 404 {object} map[string]string "Memo task not found or access denied"
// @Router /memo-tasks/{id} [put]
func (h *MemoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.MemoPatch
	if err := h.DecodeJSON(r, &patch); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.Update(r.Context(), session(r), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.RespondServiceError(w, r, err, memoNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, task)
}

// SetStatus handles PATCH /memo-tasks/{id}/status
// @Summary Change memo task status
// @Tags memo-tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Memo task ID"
// @Param request body models.MemoStatusRequest true "todo or done"
// @Success 200 {object} models.MemoTask
// @Failure 400 {object} map[string]string "Unknown status"
// @Failure 404 {object} map[string]string "Memo task not found or access denied"
// @Router /memo-tasks/{id}/status [patch]
func (h *MemoHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req models.MemoStatusRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.service.SetStatus(r.Context(), session(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.RespondServiceError(w, r, err, memoNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, task)
}

// Delete handles DELETE /memo-tasks/{id}
// @Summary Delete memo task
// @Tags memo-tasks
// @Security BearerAuth
// @Param id path string true "Memo task ID"
// @Success 204
// @Failure 404 {object} map[string]string "Memo task not found or access denied"
// @Router /memo-tasks/{id} [delete]
func (h *MemoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, memoNotFound)
		return
	}
	if !deleted {
		h.RespondError(w, http.StatusNotFound, memoNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
