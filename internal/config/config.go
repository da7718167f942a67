// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses file/in-memory KV if not set)

	// Local KV storage (used when DatabaseURL is empty)
	DataFile string // path to the JSON store; empty means in-memory only

	// Risk data
	RiskDataTTL     time.Duration // cache TTL for generated risk maps
	RiskAPIBaseURL  string        // upstream risk analytics (optional; sample source if empty)
	ReportAPIBaseURL string       // report collaborator (optional; sample API if empty)

	// Payments
	StripeAPIKey string // enables paid credit top-ups when set

	// Observability
	OTLPEndpoint string

	// Security
	RateLimitRPM   int
	AllowedOrigins []string // CORS origins; empty allows all
}

// Defaults
const (
	DefaultPort        = "8080"
	DefaultEnv         = "development"
	DefaultLogLevel    = "info"
	DefaultRiskDataTTL = 5 * time.Minute
	DefaultRateLimit   = 120
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", DefaultPort),
		Env:              getEnv("ENV", DefaultEnv),
		LogLevel:         getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DataFile:         os.Getenv("DATA_FILE"),
		RiskDataTTL:      getEnvDuration("RISK_DATA_TTL", DefaultRiskDataTTL),
		RiskAPIBaseURL:   os.Getenv("RISK_API_URL"),
		ReportAPIBaseURL: os.Getenv("REPORT_API_URL"),
		StripeAPIKey:     os.Getenv("STRIPE_API_KEY"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", DefaultRateLimit),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent
func (c *Config) Validate() error {
	if c.RiskDataTTL <= 0 {
		return fmt.Errorf("RISK_DATA_TTL must be positive")
	}
	if c.RateLimitRPM <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPM must be positive")
	}
	if c.DatabaseURL != "" && c.DataFile != "" {
		return fmt.Errorf("DATABASE_URL and DATA_FILE are mutually exclusive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
