package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const toolLinkNotFound = "tool not found or access denied"

// ToolLinkService is the interface that wraps methods for ToolLinks business logic.
type ToolLinkService interface {
	// Method List returns the tool links visible to the session.
	List(ctx context.Context, session *models.Session) ([]models.ToolLink, error)
	// Method Get retrieves a tool link by ID.
	//
	// Missing links and links owned by another user both fail with common.ErrNotFoundOrForbidden.
	Get(ctx context.Context, session *models.Session, id string) (*models.ToolLink, error)
	// Method Create stores a new tool link owned by the session user.
	//
	// If name or url is missing, common.ErrInvalidInput is returned.
	Create(ctx context.Context, session *models.Session, draft *models.ToolLinkDraft) (*models.ToolLink, error)
	// Method Update applies a partial update. Blank values are ignored.
	Update(ctx context.Context, session *models.Session, id string, patch *models.ToolLinkPatch) (*models.ToolLink, error)
	// Method Delete removes a tool link and reports whether it was removed.
	Delete(ctx context.Context, session *models.Session, id string) (bool, error)
}

// ToolLinkHandler handles HTTP requests for the toolbox
type ToolLinkHandler struct {
	BaseHandler
	service ToolLinkService
	authMw  func(http.Handler) http.Handler
}

// NewToolLinkHandler creates a new tool link handler
func NewToolLinkHandler(service ToolLinkService, logger *zap.Logger, authMw func(http.Handler) http.Handler) *ToolLinkHandler {
	return &ToolLinkHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
		authMw:      authMw,
	}
}

// RegisterRoutes registers all tool link handler routes
func (h *ToolLinkHandler) RegisterRoutes(r chi.Router) {
	r.Route("/tools", func(r chi.Router) {
		r.Use(h.authMw)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /tools
// @Summary List tools
// @Description List tool links ordered by category
// @Tags tools
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ToolLink
// @Router /tools [get]
func (h *ToolLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context(), session(r))
	if err != nil {
		h.RespondServiceError(w, r, err, toolLinkNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, links)
}

// Get handles GET /tools/{id}
// @Summary Get tool
// @Tags tools
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tool ID"
// @Success 200 {object} models.ToolLink
// @Failure 404 {object} map[string]string "Tool not found or access denied"
// @Router /tools/{id} [get]
func (h *ToolLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Get(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, toolLinkNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, link)
}

// Create handles POST /tools
// @Summary Create tool
// @Description Create a tool link. The URL gets an https:// scheme when it has none.
// @Tags tools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ToolLinkDraft true "Tool"
// @Success 201 {object} models.ToolLink
// @Failure 400 {object} map[string]string "Name and url are required"
// @Router /tools [post]
func (h *ToolLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.ToolLinkDraft
	if err := h.DecodeJSON(r, &draft); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.service.Create(r.Context(), session(r), &draft)
	if err != nil {
		h.RespondServiceError(w, r, err, toolLinkNotFound)
		return
	}
	h.RespondJSON(w, http.StatusCreated, link)
}

// Update handles PUT /tools/{id}
// @Summary Update tool
// @Tags tools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tool ID"
// @Param request body models.ToolLinkPatch true "Fields to change"
// @Success 200 {object} models.ToolLink
// @Failure 404 {object} map[string]string "Tool not found or access denied"
// @Router /tools/{id} [put]
func (h *ToolLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.ToolLinkPatch
	if err := h.DecodeJSON(r, &patch); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.service.Update(r.Context(), session(r), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.RespondServiceError(w, r, err, toolLinkNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, link)
}

// Delete handles DELETE /tools/{id}
// @Summary Delete tool
// @Tags tools
// @Security BearerAuth
// @Param id path string true "Tool ID"
// @Success 204
// @Failure 404 {object} map[string]string "Tool not found or access denied"
// @Router /tools/{id} [delete]
func (h *ToolLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, toolLinkNotFound)
		return
	}
	if !deleted {
		h.RespondError(w, http.StatusNotFound, toolLinkNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
