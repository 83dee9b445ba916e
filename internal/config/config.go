// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/mapty/internal/domain"
)

// Storage backends selectable with STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"]. Set CORS_ORIGINS to a
	// comma-separated list to override.
	CORSOrigins []string

	// StoreBackend selects where workout lists are persisted:
	// postgres (default), redis or memory.
	StoreBackend string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// RedisAddr is host:port of the Redis server. Required for redis.
	RedisAddr     string
	RedisPassword string

	// StorageKey prefixes every client's storage key. Defaults to "workouts".
	StorageKey string

	// ValidationMode is domain.Strict (default) or domain.Lenient.
	ValidationMode domain.ValidationMode

	// SessionIdleTTL is how long a live session may go unused before it is
	// evicted from memory. Defaults to 24h.
	SessionIdleTTL time.Duration

	// KafkaBrokers enables event publication when non-empty.
	KafkaBrokers []string
	// KafkaTopic defaults to "workouts.recorded".
	KafkaTopic string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable with an invalid value.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		StoreBackend:   strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		StorageKey:     getEnv("STORAGE_KEY", "workouts"),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "workouts.recorded"),
	}

	maxBody, err := strconv.ParseInt(getEnv("MAX_BODY_BYTES", "1048576"), 10, 64)
	if err != nil || maxBody <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be a positive integer, got %q", os.Getenv("MAX_BODY_BYTES"))
	}
	cfg.MaxBodyBytes = maxBody

	mode, err := domain.ParseValidationMode(getEnv("VALIDATION_MODE", string(domain.Strict)))
	if err != nil {
		return Config{}, fmt.Errorf("VALIDATION_MODE must be strict or lenient, got %q", os.Getenv("VALIDATION_MODE"))
	}
	cfg.ValidationMode = mode

	ttl, err := time.ParseDuration(getEnv("SESSION_IDLE_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return Config{}, fmt.Errorf("SESSION_IDLE_TTL must be a positive duration, got %q", os.Getenv("SESSION_IDLE_TTL"))
	}
	cfg.SessionIdleTTL = ttl

	switch cfg.StoreBackend {
	case BackendPostgres, BackendRedis, BackendMemory:
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND must be one of postgres, redis, memory, got %q", cfg.StoreBackend)
	}

	var missing []string
	if cfg.StoreBackend == BackendPostgres && cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.StoreBackend == BackendRedis && cfg.RedisAddr == "" {
		missing = append(missing, "REDIS_ADDR")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
