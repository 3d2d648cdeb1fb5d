package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	authMiddleware "github.com/northline/journal/internal/auth/middleware"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/metrics"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// IdentityService is the interface that wraps methods for account business logic.
type IdentityService interface {
	// Method Login verifies credentials and returns a signed session token with the public user view.
	//
	// Unknown usernames and wrong passwords both fail with common.ErrInvalidCredentials.
	Login(ctx context.Context, username, plaintext string) (*models.LoginResponse, error)
	// Method Register creates a new account with the user role.
	//
	// If the username is empty or the password is shorter than 8 characters, common.ErrInvalidInput is returned.
	// If the username is taken, common.ErrUsernameExists is returned.
	Register(ctx context.Context, username, plaintext string) (*models.User, error)
	// Method CreateAsAdmin creates an account with the desired role on behalf of an admin.
	//
	// If "requesterRole" is not admin, common.ErrForbidden is returned.
	CreateAsAdmin(ctx context.Context, requesterRole models.Role, username, plaintext string, desiredRole models.Role) (*models.User, error)
	// Method ChangePassword replaces the password of a user after checking the current one.
	//
	// If the current password does not match, common.ErrInvalidCurrentPassword is returned.
	ChangePassword(ctx context.Context, userID int, current, next string) error
	// Method ListUsers returns every account. Only admins may call it.
	ListUsers(ctx context.Context, requesterRole models.Role) ([]models.User, error)
	// Method GetByID retrieves a user by ID.
	GetByID(ctx context.Context, userID int) (*models.User, error)
}

// LoginObserver records login outcomes
type LoginObserver interface {
	ObserveLogin(outcome string)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	service      IdentityService
	authMw       func(http.Handler) http.Handler
	loginLimiter func(http.Handler) http.Handler
	observer     LoginObserver
}

// NewAuthHandler creates a new auth handler.
// loginLimiter throttles the login and register endpoints; observer may be nil.
func NewAuthHandler(
	service IdentityService,
	logger *zap.Logger,
	authMw func(http.Handler) http.Handler,
	loginLimiter func(http.Handler) http.Handler,
	observer LoginObserver,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		service:      service,
		authMw:       authMw,
		loginLimiter: loginLimiter,
		observer:     observer,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.loginLimiter != nil {
				r.Use(h.loginLimiter)
			}
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.authMw)
			r.Get("/me", h.Me)
			r.Post("/change-password", h.ChangePassword)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAdmin)
				r.Get("/users", h.ListUsers)
				r.Post("/users", h.CreateUser)
			})
		})
	})
}

// Login handles POST /auth/login
// @Summary Login
// @Description Authenticate with username and password and receive a bearer session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CredentialsRequest true "Credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string "Invalid request body"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			h.observe(metrics.LoginInvalid)
			h.Logger.Info("login rejected", zap.String("username", req.Username))
		} else {
			h.observe(metrics.LoginError)
		}
		h.RespondServiceError(w, r, err, "user not found")
		return
	}

	h.observe(metrics.LoginSuccess)
	h.RespondJSON(w, http.StatusOK, resp)
}

// Register handles POST /auth/register
// @Summary Register
// @Description Create a new account with the user role
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.CredentialsRequest true "Credentials"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} map[string]string "Invalid username or password"
// @Failure 409 {object} map[string]string "Username already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.CredentialsRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.RespondServiceError(w, r, err, "user not found")
		return
	}

	h.RespondJSON(w, http.StatusCreated, user.ToResponse())
}

// Me handles GET /auth/me
// @Summary Current user
// @Description Return the account behind the bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserResponse
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if s == nil {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.service.GetByID(r.Context(), s.UserID)
	if errors.Is(err, common.ErrNotFound) {
		h.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	if err != nil {
		h.RespondServiceError(w, r, err, "user not found")
		return
	}

	h.RespondJSON(w, http.StatusOK, user.ToResponse())
}

// ChangePassword handles POST /auth/change-password
// @Summary Change password
// @Description Replace the password of the current user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string "Missing fields or new password too short"
// @Failure 401 {object} map[string]string "Current password is incorrect"
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if s == nil {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.ChangePasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ChangePassword(r.Context(), s.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.RespondServiceError(w, r, err, "user not found")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListUsers handles GET /auth/users
// @Summary List users
// @Description List every account (admin only)
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.UserResponse
// @Failure 401 {object} map[string]string "Missing or invalid token"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /auth/users [get]
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if s == nil {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	users, err := h.service.ListUsers(r.Context(), s.Role)
	if err != nil {
		h.RespondServiceError(w, r, err, "user not found")
		return
	}

	resp := make([]models.UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, users[i].ToResponse())
	}
	h.RespondJSON(w, http.StatusOK, resp)
}

// CreateUser handles POST /auth/users
// @Summary Create user
// @Description Create an account with any role (admin only)
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateUserRequest true "New account"
// @Success 201 {object} models.UserResponse
// @Failure 400 {object} map[string]string "Invalid username, password or role"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 409 {object} map[string]string "Username already exists"
// @Router /auth/users [post]
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	s := session(r)
	if s == nil {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req models.CreateUserRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.CreateAsAdmin(r.Context(), s.Role, req.Username, req.Password, req.Role)
	if err != nil {
		h.RespondServiceError(w, r, err, "user not found")
		return
	}

	h.RespondJSON(w, http.StatusCreated, user.ToResponse())
}

func (h *AuthHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveLogin(outcome)
	}
}
