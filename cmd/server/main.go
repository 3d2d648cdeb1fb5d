package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	authService "github.com/northline/journal/internal/auth/service"
	"github.com/northline/journal/internal/config"
	"github.com/northline/journal/internal/cryptox"
	"github.com/northline/journal/internal/database"
	"github.com/northline/journal/internal/legacy"
	"github.com/northline/journal/internal/logger"
	"github.com/northline/journal/internal/metrics"
	"github.com/northline/journal/internal/repositories"
	"github.com/northline/journal/internal/server"
	"github.com/northline/journal/internal/services"
	"go.uber.org/zap"
)

// @title Northline Journal API
// @version 1.0
// @description Multi-user journal backend: posts, memo tasks, game vault and toolbox.

// @host localhost:3000
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Northline Journal", zap.String("env", cfg.App.Env), zap.String("db", cfg.Database.Driver))
	for _, name := range cfg.InsecureDefaults {
		logger.Logger.Warn("using insecure development default, set it before deploying", zap.String("setting", name))
	}

	// Connect to database
	if cfg.Database.Driver == config.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.File), 0o750); err != nil {
			logger.Logger.Fatal("Failed to create database directory", zap.Error(err))
		}
	}
	db, err := database.Connect(cfg.Database.Driver, cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize session tokens and the vault cipher
	tokenService, err := authService.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize token service", zap.Error(err))
	}

	vault, err := cryptox.NewVault(cfg.Vault.Key)
	if err != nil {
		logger.Logger.Fatal("Failed to initialize vault", zap.Error(err))
	}
	var sealer services.SecretSealer
	var legacySealer legacy.Sealer
	if vault.Enabled() {
		sealer = vault
		legacySealer = vault
	} else {
		logger.Logger.Warn("VAULT_KEY is not set, game account passwords are stored unencrypted")
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	postRepo := repositories.NewPostRepository(db, logger.Logger)
	commentRepo := repositories.NewPostCommentRepository(db, logger.Logger)
	memoRepo := repositories.NewMemoRepository(db, logger.Logger)
	gameAccountRepo := repositories.NewGameAccountRepository(db, logger.Logger)
	toolLinkRepo := repositories.NewToolLinkRepository(db, logger.Logger)

	// Initialize services
	identityService := services.NewIdentityService(userRepo, tokenService, cfg.Admin.Username, cfg.Admin.Password, logger.Logger)
	postService := services.NewPostService(postRepo, logger.Logger)
	commentService := services.NewPostCommentService(commentRepo, postRepo, logger.Logger)
	memoService := services.NewMemoService(memoRepo, logger.Logger)
	gameAccountService := services.NewGameAccountService(gameAccountRepo, sealer, logger.Logger)
	toolLinkService := services.NewToolLinkService(toolLinkRepo, logger.Logger)

	// Bootstrap admin, owner back-fill and legacy import
	ctx := context.Background()
	adminID, err := identityService.Bootstrap(ctx)
	if err != nil {
		logger.Logger.Fatal("Failed to bootstrap admin", zap.Error(err))
	}
	if err := legacy.BackfillOwners(ctx, db, adminID, logger.Logger); err != nil {
		logger.Logger.Fatal("Failed to assign orphan rows", zap.Error(err))
	}
	legacy.NewImporter(db, legacySealer, logger.Logger).Run(ctx, cfg.Legacy.SnapshotPath, adminID)

	// Setup router
	router := server.NewRouter(
		server.Services{
			Verifier:     tokenService,
			Identity:     identityService,
			Posts:        postService,
			Comments:     commentService,
			Memos:        memoService,
			GameAccounts: gameAccountService,
			ToolLinks:    toolLinkService,
			DB:           db,
			Driver:       cfg.Database.Driver,
		},
		server.Options{
			AllowedOrigins:    cfg.CORS.AllowedOrigins,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			LoginPerMinute:    cfg.RateLimit.LoginPerMinute,
			SwaggerURL:        fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port),
		},
		metrics.New(),
		logger.Logger,
	)

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}
