// Package handlers exposes the journal services over HTTP
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	authMiddleware "github.com/northline/journal/internal/auth/middleware"
	"github.com/northline/journal/internal/common"
	"github.com/northline/journal/internal/models"
	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// RespondServiceError maps a service error to its HTTP status.
// Unknown errors are logged and hidden behind a generic 500.
func (h *BaseHandler) RespondServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMessage string) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		h.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		h.RespondError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, common.ErrInvalidCurrentPassword):
		h.RespondError(w, http.StatusUnauthorized, "current password is incorrect")
	case errors.Is(err, common.ErrInvalidToken):
		h.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
	case errors.Is(err, common.ErrForbidden):
		h.RespondError(w, http.StatusForbidden, "insufficient permissions")
	case errors.Is(err, common.ErrNotFoundOrForbidden), errors.Is(err, common.ErrNotFound):
		h.RespondError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, common.ErrUsernameExists):
		h.RespondError(w, http.StatusConflict, "username already exists")
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// DecodeJSON reads the request body into dst and rejects trailing data
func (h *BaseHandler) DecodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// session returns the authenticated session of the request, or nil
func session(r *http.Request) *models.Session {
	s, _ := authMiddleware.GetSession(r.Context())
	return s
}
