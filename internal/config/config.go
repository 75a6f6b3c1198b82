package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Environment string
	HTTPAddr    string

	Database DatabaseConfig
	Auth     AuthConfig
	Billing  BillingConfig
	Gateway  GatewayConfig
	Reminder ReminderConfig
	Tracing  TracingConfig

	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	// DSN is a sqlite path, or ":memory:" for ephemeral runs.
	DSN string
}

type AuthConfig struct {
	// JWTSecret signs admin session tokens.
	JWTSecret string
	TokenTTL  time.Duration
	// LoginRateLimit caps login attempts per client per window.
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

type BillingConfig struct {
	// CardSurchargeRate is the pass-through card processing rate, e.g. 0.035.
	CardSurchargeRate decimal.Decimal
	// AllowNegativeCustomAmount permits a negative custom amount to offset
	// selected fees during invoice composition.
	AllowNegativeCustomAmount bool
	// DefaultDueInDays is applied when an invoice is created without a due date.
	DefaultDueInDays int
}

type GatewayConfig struct {
	// WebhookSecret verifies card-confirmation webhook signatures.
	WebhookSecret string
	// CheckoutBaseURL is the hosted checkout page prefix.
	CheckoutBaseURL string
}

type ReminderConfig struct {
	Enabled      bool
	BatchSize    int
	PollInterval time.Duration
}

type TracingConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

type BootstrapConfig struct {
	EnsureDefaultAdmin bool
	AdminEmail         string
	AdminPassword      string
}

// Load reads configuration from the environment, consulting .env when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment: envOr("ENVIRONMENT", "development"),
		HTTPAddr:    envOr("HTTP_ADDR", ":8080"),
		Database: DatabaseConfig{
			DSN: envOr("DATABASE_DSN", "camp.db"),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
			TokenTTL:        envDuration("AUTH_TOKEN_TTL", 12*time.Hour),
			LoginRateLimit:  envInt("AUTH_LOGIN_RATE_LIMIT", 10),
			LoginRateWindow: envDuration("AUTH_LOGIN_RATE_WINDOW", time.Minute),
		},
		Billing: BillingConfig{
			CardSurchargeRate:         envDecimal("BILLING_CARD_SURCHARGE_RATE", "0.035"),
			AllowNegativeCustomAmount: envBool("BILLING_ALLOW_NEGATIVE_CUSTOM_AMOUNT", false),
			DefaultDueInDays:          envInt("BILLING_DEFAULT_DUE_IN_DAYS", 90),
		},
		Gateway: GatewayConfig{
			WebhookSecret:   os.Getenv("GATEWAY_WEBHOOK_SECRET"),
			CheckoutBaseURL: envOr("GATEWAY_CHECKOUT_BASE_URL", "https://checkout.local/session"),
		},
		Reminder: ReminderConfig{
			Enabled:      envBool("REMINDER_ENABLED", true),
			BatchSize:    envInt("REMINDER_BATCH_SIZE", 50),
			PollInterval: envDuration("REMINDER_POLL_INTERVAL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:          envBool("TRACING_ENABLED", false),
			ExporterEndpoint: os.Getenv("TRACING_EXPORTER_ENDPOINT"),
			ExporterProtocol: envOr("TRACING_EXPORTER_PROTOCOL", "grpc"),
			SamplingRatio:    envFloat("TRACING_SAMPLING_RATIO", 0.1),
		},
		Bootstrap: BootstrapConfig{
			EnsureDefaultAdmin: envBool("BOOTSTRAP_ENSURE_DEFAULT_ADMIN", true),
			AdminEmail:         envOr("BOOTSTRAP_ADMIN_EMAIL", "admin@campbaraisa.com"),
			AdminPassword:      envOr("BOOTSTRAP_ADMIN_PASSWORD", "admin"),
		},
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production hardening.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDecimal(key, fallback string) decimal.Decimal {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		value = fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		parsed, _ = decimal.NewFromString(fallback)
	}
	return parsed
}
