package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

const gameAccountNotFound = "game account not found or access denied"

// GameAccountService is the interface that wraps methods for GameAccounts business logic.
type GameAccountService interface {
	// Method List returns the game accounts visible to the session with passwords revealed.
	List(ctx context.Context, session *models.Session) ([]models.GameAccount, error)
	// Method Get retrieves a game account by ID.
	//
	// Missing accounts and accounts owned by another user both fail with common.ErrNotFoundOrForbidden.
	Get(ctx context.Context, session *models.Session, id string) (*models.GameAccount, error)
	// Method Create stores a new game account owned by the session user.
	//
	// If game, account or password is missing, common.ErrInvalidInput is returned.
	Create(ctx context.Context, session *models.Session, draft *models.GameAccountDraft) (*models.GameAccount, error)
	// Method Update applies a partial update.
	Update(ctx context.Context, session *models.Session, id string, patch *models.GameAccountPatch) (*models.GameAccount, error)
	// Method Delete removes a game account and reports whether it was removed.
	Delete(ctx context.Context, session *models.Session, id string) (bool, error)
}

// GameAccountHandler handles HTTP requests for the game vault
type GameAccountHandler struct {
	BaseHandler
	service GameAccountService
	authMw  func(http.Handler) http.Handler
}

// NewGameAccountHandler creates a new game account handler
func NewGameAccountHandler(service GameAccountService, logger *zap.Logger, authMw func(http.Handler) http.Handler) *GameAccountHandler {
	return &GameAccountHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     service,
		authMw:      authMw,
	}
}

// RegisterRoutes registers all game account handler routes
func (h *GameAccountHandler) RegisterRoutes(r chi.Router) {
	r.Route("/game-accounts", func(r chi.Router) {
		r.Use(h.authMw)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /game-accounts
// @Summary List game accounts
// @Description List game accounts ordered by last login, most recent first
// @Tags game-accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.GameAccount
// @Router /game-accounts [get]
func (h *GameAccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.List(r.Context(), session(r))
	if err != nil {
		h.RespondServiceError(w, r, err, gameAccountNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, accounts)
}

// Get handles GET /game-accounts/{id}
// @Summary Get game account
// @Tags game-accounts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Game account ID"
// @Success 200 {object} models.GameAccount
// @Failure 404 {object} map[string]string "Game account not found or access denied"
// @Router /game-accounts/{id} [get]
func (h *GameAccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.Get(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, gameAccountNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, account)
}

// Create handles POST /game-accounts
// @Summary Create game account
// @Tags game-accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GameAccountDraft true "Game account"
// @Success 201 {object} models.GameAccount
// @Failure 400 {object} map[string]string "Game, account and password are required"
// @Router /game-accounts [post]
func (h *GameAccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.GameAccountDraft
	if err := h.DecodeJSON(r, &draft); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.service.Create(r.Context(), session(r), &draft)
	if err != nil {
		h.RespondServiceError(w, r, err, gameAccountNotFound)
		return
	}
	h.RespondJSON(w, http.StatusCreated, account)
}

// Update handles PUT /game-accounts/{id}
// @Summary Update game account
// @Tags game-accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Game account ID"
// @Param request body models.GameAccountPatch true "Fields to change"
// @Success 200 {object} models.GameAccount
// @Failure 404 {object} map[string]string "Game account not found or access denied"
// @Router /game-accounts/{id} [put]
func (h *GameAccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch models.GameAccountPatch
	if err := h.DecodeJSON(r, &patch); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.service.Update(r.Context(), session(r), chi.URLParam(r, "id"), &patch)
	if err != nil {
		h.RespondServiceError(w, r, err, gameAccountNotFound)
		return
	}
	h.RespondJSON(w, http.StatusOK, account)
}

// Delete handles DELETE /game-accounts/{id}
// @Summary Delete game account
// @Tags game-accounts
// @Security BearerAuth
// @Param id path string true "Game account ID"
// @Success 204
// @Failure 404 {object} map[string]string "Game account not found or access denied"
// @Router /game-accounts/{id} [delete]
func (h *GameAccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Delete(r.Context(), session(r), chi.URLParam(r, "id"))
	if err != nil {
		h.RespondServiceError(w, r, err, gameAccountNotFound)
		return
	}
	if !deleted {
		h.RespondError(w, http.StatusNotFound, gameAccountNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
