package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Upload limits
	MaxUploadBytes int64

	// HTTP client (dataset import)
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries         int
	InitialBackoff     time.Duration
	MaxConcurrentClean int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Sessions. SESSION_SECRET empty disables session auth (single-user
	// mode); set it to scope datasets per issued token.
	SessionSecret string
	SessionTTL    time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 32<<20),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		InitialBackoff:     getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrentClean: getEnvInt("MAX_CONCURRENT_CLEAN", 4),

		CacheTTL: getEnvDuration("CACHE_TTL", 30*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
