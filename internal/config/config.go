// Package config provides configuration loading and management for the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Tab state backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// HTTP server port
	Port string

	// Analytics API base URL, e.g. http://localhost:8000/api
	AnalyticsURL     string
	AnalyticsTimeout time.Duration
	RetryMax         int

	// Period used when a request does not name one
	DefaultPeriod string

	// Tab state persistence
	TabStateBackend string
	TabStateDir     string
	RedisURL        string
	DatabaseURL     string

	// OpenTelemetry endpoint for observability
	OtelEndpoint string

	// Limits and circuit breaker settings
	RateLimitRPS            float64
	RateLimitBurst          int
	CircuitFailureThreshold int
	CircuitResetDelay       time.Duration

	CORSOrigins []string

	LogFormat     string
	LogLevel      string
	EnableMetrics bool
}

// Load creates a new Config from environment variables, reading an optional
// .env file first. Variables already set in the environment win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Could not read .env file")
	}

	return Config{
		Port:                    GetEnvOrDefault("PORT", "8080"),
		AnalyticsURL:            strings.TrimRight(GetEnvOrDefault("ANALYTICS_API_URL", "http://localhost:8000/api"), "/"),
		AnalyticsTimeout:        GetEnvAsDuration("ANALYTICS_API_TIMEOUT", 120*time.Second),
		RetryMax:                GetEnvAsInt("ANALYTICS_RETRY_MAX", 2),
		DefaultPeriod:           GetEnvOrDefault("DEFAULT_PERIOD", "2026_total"),
		TabStateBackend:         strings.ToLower(GetEnvOrDefault("TABSTATE_BACKEND", BackendMemory)),
		TabStateDir:             GetEnvOrDefault("TABSTATE_DIR", "data/tabstate"),
		RedisURL:                GetEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:             GetEnvOrDefault("DATABASE_URL", ""),
		OtelEndpoint:            GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		RateLimitRPS:            GetEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:          GetEnvAsInt("RATE_LIMIT_BURST", 40),
		CircuitFailureThreshold: GetEnvAsInt("CIRCUIT_FAILURE_THRESHOLD", 5),
		CircuitResetDelay:       GetEnvAsDuration("CIRCUIT_RESET_DELAY", 30*time.Second),
		CORSOrigins:             GetEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000", "http://localhost:3001"}),
		LogFormat:               strings.ToLower(GetEnvOrDefault("LOG_FORMAT", "text")),
		LogLevel:                strings.ToLower(GetEnvOrDefault("LOG_LEVEL", "info")),
		EnableMetrics:           GetEnvAsBool("ENABLE_METRICS", true),
	}
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.Warnf("Invalid integer in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		logrus.Warnf("Invalid float in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.Warnf("Invalid duration in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		logrus.Warnf("Invalid boolean in %s, using default: %v", key, defaultValue)
	}
	return defaultValue
}

// GetEnvAsList splits a comma-separated variable, dropping empty entries
func GetEnvAsList(key string, defaultValue []string) []string {
	value, exists := GetEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
