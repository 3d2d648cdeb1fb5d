// Package server assembles the HTTP router from the journal handlers
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/northline/journal/docs"
	authMiddleware "github.com/northline/journal/internal/auth/middleware"
	"github.com/northline/journal/internal/handlers"
	loggerMiddleware "github.com/northline/journal/internal/logger/middleware"
	"github.com/northline/journal/internal/metrics"
	"github.com/northline/journal/internal/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Options configures the router
type Options struct {
	AllowedOrigins    []string
	RequestsPerMinute int
	LoginPerMinute    int
	SwaggerURL        string
}

// Services are the collaborators the handlers delegate to
type Services struct {
	Verifier     authMiddleware.SessionVerifier
	Identity     handlers.IdentityService
	Posts        handlers.PostService
	Comments     handlers.PostCommentService
	Memos        handlers.MemoService
	GameAccounts handlers.GameAccountService
	ToolLinks    handlers.ToolLinkService
	DB           handlers.Pinger
	Driver       string
}

// NewRouter builds the chi router with the shared middleware stack, /api routes,
// Swagger UI and the Prometheus endpoint
func NewRouter(svc Services, opts Options, m *metrics.Metrics, logger *zap.Logger) http.Handler {
	authMw := authMiddleware.AuthMiddleware(svc.Verifier)
	loginLimiter := httprate.Limit(
		opts.LoginPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			m.ObserveLogin(metrics.LoginRateLimited)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many attempts, try again later"}`))
		}),
	)

	healthHandler := handlers.NewHealthHandler(svc.DB, svc.Driver, logger)
	authHandler := handlers.NewAuthHandler(svc.Identity, logger, authMw, loginLimiter, m)
	postHandler := handlers.NewPostHandler(svc.Posts, logger, authMw).
		WithComments(handlers.NewPostCommentHandler(svc.Comments, logger))
	memoHandler := handlers.NewMemoHandler(svc.Memos, logger, authMw)
	gameAccountHandler := handlers.NewGameAccountHandler(svc.GameAccounts, logger, authMw)
	toolLinkHandler := handlers.NewToolLinkHandler(svc.ToolLinks, logger, authMw)

	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(m.Middleware)
	r.Use(middleware.CORSMiddleware(opts.AllowedOrigins))
	r.Use(httprate.LimitByIP(opts.RequestsPerMinute, time.Minute))
	r.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))

	// Swagger documentation
	swaggerURL := opts.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		healthHandler.RegisterRoutes(r)
		authHandler.RegisterRoutes(r)
		postHandler.RegisterRoutes(r)
		memoHandler.RegisterRoutes(r)
		gameAccountHandler.RegisterRoutes(r)
		toolLinkHandler.RegisterRoutes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not found"}`)
	})

	return r
}
