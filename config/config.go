package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"nsePaperTracker/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Market data provider
	ProviderBaseURL string
	ProviderTimeout time.Duration
	MaxAttempts     int
	MinRetryDelay   time.Duration
	MaxRetryDelay   time.Duration

	// Engine
	PollInterval         time.Duration
	MaxConcurrentFetches int
	SwingEntrySessions   int

	// Observability
	MetricsAddr string // empty disables the metrics endpoint
	LogLevel    logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.DBPath = getEnv("DB_PATH", "./data/paper_trades.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.ProviderBaseURL = getEnv("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com")
	if cfg.ProviderBaseURL == "" {
		errs = append(errs, "PROVIDER_BASE_URL must be set")
	}

	providerTimeoutSeconds := getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 10)
	if providerTimeoutSeconds <= 0 {
		errs = append(errs, "PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	cfg.ProviderTimeout = time.Duration(providerTimeoutSeconds) * time.Second

	cfg.MaxAttempts = getEnvAsInt("PROVIDER_MAX_ATTEMPTS", 3)
	if cfg.MaxAttempts <= 0 {
		errs = append(errs, "PROVIDER_MAX_ATTEMPTS must be positive")
	}

	minRetryMs := getEnvAsInt("PROVIDER_MIN_RETRY_DELAY_MS", 500)
	maxRetryMs := getEnvAsInt("PROVIDER_MAX_RETRY_DELAY_MS", 5000)
	if minRetryMs <= 0 || maxRetryMs <= 0 {
		errs = append(errs, "provider retry delays must be positive")
	} else if minRetryMs > maxRetryMs {
		errs = append(errs, "PROVIDER_MIN_RETRY_DELAY_MS must not exceed PROVIDER_MAX_RETRY_DELAY_MS")
	}
	cfg.MinRetryDelay = time.Duration(minRetryMs) * time.Millisecond
	cfg.MaxRetryDelay = time.Duration(maxRetryMs) * time.Millisecond

	pollIntervalSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 60)
	if pollIntervalSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollIntervalSeconds) * time.Second

	cfg.MaxConcurrentFetches = getEnvAsInt("MAX_CONCURRENT_FETCHES", 4)
	if cfg.MaxConcurrentFetches <= 0 {
		errs = append(errs, "MAX_CONCURRENT_FETCHES must be positive")
	}

	cfg.SwingEntrySessions = getEnvAsInt("SWING_ENTRY_SESSIONS", 5)
	if cfg.SwingEntrySessions <= 0 {
		errs = append(errs, "SWING_ENTRY_SESSIONS must be positive")
	}

	cfg.MetricsAddr = getEnv("METRICS_ADDR", ":9090")

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
