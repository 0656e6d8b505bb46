package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
// It is loaded once at process start and handed to constructors; nothing below
// the bootstrap layer reads the environment.
type Config struct {
	DatabaseURL         string
	StripeWebhookSecret string
	// Optional: base URL for running remote HTTP integration tests (e.g., https://api.example.com)
	IntegrationBaseURL string
	// Server ports
	HTTPPort string
	GRPCPort string
	// postgres (default) or log
	StoreMode string
	LogLevel  string

	// Raw values, parsed into the typed fields below.
	WebhookToleranceRaw string
	DBTimeoutRaw        string
	RateLimitRPSRaw     string
	RateLimitBurstRaw   string

	WebhookTolerance time.Duration
	DBTimeout        time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{}

	// Try to load .env file from current directory and parent directories
	currentDir, _ := os.Getwd()
	for currentDir != "/" && currentDir != "." {
		envPath := filepath.Join(currentDir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			err = godotenv.Load(envPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load .env file: %v", err)
			}
			break
		}
		currentDir = filepath.Dir(currentDir)
	}

	vars := []struct {
		name     string
		envVar   string
		display  string
		required bool
	}{
		{"StripeWebhookSecret", "STRIPE_WEBHOOK_SECRET", "Stripe Webhook Secret", true},
		// Required unless STORE_MODE=log, checked below
		{"DatabaseURL", "DATABASE_URL", "Database URL", false},
		// Optional integration base URL for remote tests
		{"IntegrationBaseURL", "INTEGRATION_BASE_URL", "Integration Base URL", false},
		{"HTTPPort", "PORT", "HTTP Port", false},
		{"GRPCPort", "GRPC_PORT", "gRPC Port", false},
		{"StoreMode", "STORE_MODE", "Store Mode", false},
		{"LogLevel", "LOG_LEVEL", "Log Level", false},
		{"WebhookToleranceRaw", "WEBHOOK_TOLERANCE", "Webhook Tolerance", false},
		{"DBTimeoutRaw", "DB_TIMEOUT", "Database Timeout", false},
		{"RateLimitRPSRaw", "RATE_LIMIT_RPS", "Rate Limit RPS", false},
		{"RateLimitBurstRaw", "RATE_LIMIT_BURST", "Rate Limit Burst", false},
	}

	for _, v := range vars {
		value := os.Getenv(v.envVar)
		if v.required && value == "" {
			return nil, fmt.Errorf("missing required environment variable: %s", v.display)
		}
		configField := reflect.ValueOf(config).Elem().FieldByName(v.name)
		configField.SetString(value)
	}

	if err := config.applyDefaults(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyDefaults() error {
	if c.HTTPPort == "" {
		c.HTTPPort = "8080"
	}
	if c.GRPCPort == "" {
		c.GRPCPort = "50051"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	c.StoreMode = strings.ToLower(strings.TrimSpace(c.StoreMode))
	switch c.StoreMode {
	case "":
		c.StoreMode = StoreModePostgres
	case StoreModePostgres, StoreModeLog:
	default:
		return fmt.Errorf("invalid STORE_MODE %q: want %s or %s", c.StoreMode, StoreModePostgres, StoreModeLog)
	}
	if c.StoreMode == StoreModePostgres && c.DatabaseURL == "" {
		return fmt.Errorf("missing required environment variable: Database URL")
	}

	var err error
	if c.WebhookTolerance, err = parseDuration(c.WebhookToleranceRaw, DefaultWebhookTolerance); err != nil {
		return fmt.Errorf("invalid WEBHOOK_TOLERANCE: %w", err)
	}
	if c.DBTimeout, err = parseDuration(c.DBTimeoutRaw, DefaultDBTimeout); err != nil {
		return fmt.Errorf("invalid DB_TIMEOUT: %w", err)
	}

	c.RateLimitRPS = DefaultRateLimitRPS
	if c.RateLimitRPSRaw != "" {
		if c.RateLimitRPS, err = strconv.ParseFloat(c.RateLimitRPSRaw, 64); err != nil || c.RateLimitRPS <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q", c.RateLimitRPSRaw)
		}
	}
	c.RateLimitBurst = DefaultRateLimitBurst
	if c.RateLimitBurstRaw != "" {
		if c.RateLimitBurst, err = strconv.Atoi(c.RateLimitBurstRaw); err != nil || c.RateLimitBurst <= 0 {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q", c.RateLimitBurstRaw)
		}
	}
	return nil
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", raw)
	}
	return d, nil
}
