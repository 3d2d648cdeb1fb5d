// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Development fallbacks. They are refused when APP_ENV=production.
const (
	devJWTSecret     = "dev-only-change-me"
	devAdminUsername = "admin"
	devAdminPassword = "change-me-now"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
	CORS      CORSConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Vault     VaultConfig
	Legacy    LegacyConfig
	RateLimit RateLimitConfig

	// InsecureDefaults lists the settings that fell back to a development default
	InsecureDefaults []string
}

// AppConfig holds general application settings
type AppConfig struct {
	Env string
}

// IsProduction reports whether the application runs in production mode
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	File     string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AdminConfig holds the bootstrap administrator credentials
type AdminConfig struct {
	Username string
	Password string
}

// VaultConfig holds the game vault encryption settings.
// An empty key disables encryption at rest.
type VaultConfig struct {
	Key string
}

// LegacyConfig holds the one-shot legacy snapshot import settings
type LegacyConfig struct {
	SnapshotPath string
}

// RateLimitConfig holds request rate limits per client IP
type RateLimitConfig struct {
	RequestsPerMinute int
	LoginPerMinute    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	return fromEnv()
}

// fromEnv builds the configuration from the current process environment
func fromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.App.Env = os.Getenv("APP_ENV")
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}

	if err := loadDatabase(cfg); err != nil {
		return nil, err
	}

	// Server configuration
	serverPort, err := intEnv("SERVER_PORT", 3000)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = serverPort

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		if cfg.App.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = devJWTSecret
		cfg.InsecureDefaults = append(cfg.InsecureDefaults, "JWT_SECRET")
	}

	expiryStr := os.Getenv("JWT_EXPIRES_IN")
	if expiryStr == "" {
		expiryStr = "8h"
	}
	expiry, err := time.ParseDuration(expiryStr)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: must be positive")
	}
	cfg.JWT.Expiry = expiry

	cfg.JWT.Issuer = os.Getenv("JWT_ISSUER")
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "northline-journal"
	}

	// Bootstrap administrator
	cfg.Admin.Username = strings.TrimSpace(os.Getenv("ADMIN_USER"))
	if cfg.Admin.Username == "" {
		cfg.Admin.Username = devAdminUsername
	}
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	if cfg.Admin.Password == "" {
		if cfg.App.IsProduction() {
			return nil, fmt.Errorf("ADMIN_PASSWORD is required in production")
		}
		cfg.Admin.Password = devAdminPassword
		cfg.InsecureDefaults = append(cfg.InsecureDefaults, "ADMIN_PASSWORD")
	}

	// Optional features
	cfg.Vault.Key = os.Getenv("VAULT_KEY")
	cfg.Legacy.SnapshotPath = os.Getenv("LEGACY_SNAPSHOT")

	// Rate limits
	cfg.RateLimit.RequestsPerMinute, err = intEnv("RATE_LIMIT_PER_MINUTE", 100)
	if err != nil {
		return nil, err
	}
	cfg.RateLimit.LoginPerMinute, err = intEnv("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDatabase reads the driver-specific database settings
func loadDatabase(cfg *Config) error {
	driver := strings.ToLower(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = DriverSQLite
	}
	cfg.Database.Driver = driver

	switch driver {
	case DriverSQLite:
		cfg.Database.File = os.Getenv("DB_FILE")
		if cfg.Database.File == "" {
			cfg.Database.File = "data/journal.db"
		}
		return nil
	case DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	cfg.Database.Host = dbHost

	dbPortStr := os.Getenv("DB_PORT")
	if dbPortStr == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil {
		return fmt.Errorf("invalid DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort

	dbUser := os.Getenv("DB_USER")
	if dbUser == "" {
		return fmt.Errorf("DB_USER is required")
	}
	cfg.Database.User = dbUser

	// Empty password is allowed for local MySQL instances
	cfg.Database.Password = os.Getenv("DB_PASSWORD")

	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	cfg.Database.DBName = dbName

	return nil
}

// intEnv reads an integer variable, returning def when it is unset
func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

// parseOrigins splits a comma-separated origin list, defaulting to all origins
func parseOrigins(raw string) []string {
	if raw == "" {
		// Default to allow all origins if not specified (for development)
		return []string{"*"}
	}

	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// DSN returns the database connection string for the configured driver
func (c *Config) DSN() string {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.Host == "" {
			return ""
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&clientFoundRows=true",
			c.Database.User,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.DBName,
		)
	case DriverSQLite:
		if c.Database.File == "" {
			return ""
		}
		return c.Database.File + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	default:
		return ""
	}
}
