package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads the configuration for integration tests from TEST_* variables.
// When no MySQL test database is configured it falls back to a SQLite file in dir,
// so integration tests always have a database to run against.
func LoadTestConfig(dir string) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist - it's optional)
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{Env: "test"},
		JWT: JWTConfig{
			Secret: "test-secret-key-for-integration-tests",
			Expiry: time.Hour,
			Issuer: "northline-journal-test",
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "admin-password",
		},
		Vault: VaultConfig{Key: "integration-vault-key"},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 1000,
			LoginPerMinute:    1000,
		},
	}

	if secret := os.Getenv("TEST_JWT_SECRET"); secret != "" {
		cfg.JWT.Secret = secret
	}

	dbHost := os.Getenv("TEST_DB_HOST")
	if dbHost == "" {
		cfg.Database.Driver = DriverSQLite
		cfg.Database.File = dir + "/journal_test.db"
		return cfg, nil
	}

	cfg.Database.Driver = DriverMySQL
	cfg.Database.Host = dbHost

	dbPort, err := strconv.Atoi(os.Getenv("TEST_DB_PORT"))
	if err != nil {
		return nil, fmt.Errorf("invalid TEST_DB_PORT: %w", err)
	}
	cfg.Database.Port = dbPort
	cfg.Database.User = os.Getenv("TEST_DB_USER")
	cfg.Database.Password = os.Getenv("TEST_DB_PASSWORD")
	cfg.Database.DBName = os.Getenv("TEST_DB_NAME")
	if cfg.Database.User == "" || cfg.Database.DBName == "" {
		return nil, fmt.Errorf("TEST_DB_USER and TEST_DB_NAME are required when TEST_DB_HOST is set")
	}

	return cfg, nil
}
