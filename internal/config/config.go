package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds runtime settings read from the environment
type Config struct {
	Port               string
	Environment        string
	LogLevel           string
	LogFile            string
	JWTSecret          []byte
	StoreBackend       string
	DatabaseURL        string
	SQLitePath         string
	CheckTimeout       time.Duration
	RateLimitPerMinute int
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	// .env is optional; system environment wins when both are set
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		Environment:  getEnvOrDefault("ENVIRONMENT", "development"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:      getEnvOrDefault("LOG_FILE", "taskrunner.log"),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		StoreBackend: strings.ToLower(getEnvOrDefault("STORE_BACKEND", StoreSQLite)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   getEnvOrDefault("SQLITE_PATH", "taskrunner.db"),
	}

	timeout, err := time.ParseDuration(getEnvOrDefault("CHECK_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_TIMEOUT: %w", err)
	}
	cfg.CheckTimeout = timeout

	limit, err := strconv.Atoi(getEnvOrDefault("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %q", os.Getenv("RATE_LIMIT_PER_MINUTE"))
	}
	cfg.RateLimitPerMinute = limit

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	switch c.StoreBackend {
	case StoreSQLite, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
