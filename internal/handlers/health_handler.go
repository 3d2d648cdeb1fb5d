package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger checks that the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports service liveness
type HealthHandler struct {
	BaseHandler
	db     Pinger
	driver string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db Pinger, driver string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		db:          db,
		driver:      driver,
	}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	DB      string `json:"db"`
}

// Health handles GET /health
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{OK: true, Service: "northline-journal", DB: h.driver}
	if err := h.db.PingContext(ctx); err != nil {
		h.Logger.Warn("database ping failed", zap.Error(err))
		resp.OK = false
		h.RespondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.RespondJSON(w, http.StatusOK, resp)
}
