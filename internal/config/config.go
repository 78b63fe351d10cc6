// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for IDENTITY_PROVIDER.
const (
	ProviderClerk    = "clerk"
	ProviderFirebase = "firebase"
)

// Supported values for DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrMissingWebhookSecret is returned when WEBHOOK_SECRET is empty. Without it no
// webhook can ever be verified, so the service must not start.
var ErrMissingWebhookSecret = errors.New("WEBHOOK_SECRET is not set; add the signing secret from the identity provider dashboard to the environment or .env")

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE" validate:"oneof=debug release test"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT" validate:"required,numeric"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBDriver          string        `mapstructure:"DB_DRIVER" validate:"oneof=postgres sqlite"`
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS" validate:"gte=0"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS" validate:"gte=0"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`
	DBSource          string        `mapstructure:"DB_SOURCE"` // DSN used as-is by the sqlite driver

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Webhook Configuration
	WebhookSecret       string `mapstructure:"WEBHOOK_SECRET"`
	WebhookPath         string `mapstructure:"WEBHOOK_PATH" validate:"required,startswith=/"`
	WebhookMaxBodyBytes int64  `mapstructure:"WEBHOOK_MAX_BODY_BYTES" validate:"gt=0"`

	// Identity Provider Configuration
	IdentityProvider string `mapstructure:"IDENTITY_PROVIDER" validate:"oneof=clerk firebase"`
	ClerkSecretKey   string `mapstructure:"CLERK_SECRET_KEY" validate:"required_if=IdentityProvider clerk"`
	ClerkAPIURL      string `mapstructure:"CLERK_API_URL" validate:"omitempty,url"`

	// Firebase Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH" validate:"required_if=IdentityProvider firebase"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Role sync retries
	RoleSyncRetrySchedule string `mapstructure:"ROLE_SYNC_RETRY_SCHEDULE"`
	RoleSyncBatchSize     int    `mapstructure:"ROLE_SYNC_BATCH_SIZE" validate:"gt=0"`
	RoleSyncMaxAttempts   int    `mapstructure:"ROLE_SYNC_MAX_ATTEMPTS" validate:"gt=0"`

	// CORS
	CORSAllowedOrigins []string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

var validate = validator.New()

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Durations are configured as plain integers.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute

	// AutomaticEnv hands slices over as one comma separated string.
	cfg.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "identity_sync_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)
	v.SetDefault("DB_SOURCE", "identity_sync.db")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("WEBHOOK_SECRET", "")
	v.SetDefault("WEBHOOK_PATH", "/api/webhooks")
	v.SetDefault("WEBHOOK_MAX_BODY_BYTES", 1<<20)

	v.SetDefault("IDENTITY_PROVIDER", ProviderClerk)
	v.SetDefault("CLERK_SECRET_KEY", "")
	v.SetDefault("CLERK_API_URL", "")
	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "") // Optional

	v.SetDefault("ROLE_SYNC_RETRY_SCHEDULE", "@every 1m")
	v.SetDefault("ROLE_SYNC_BATCH_SIZE", 50)
	v.SetDefault("ROLE_SYNC_MAX_ATTEMPTS", 10)

	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

// Validate checks the loaded values. A missing webhook secret is reported as
// ErrMissingWebhookSecret so callers can tell it apart from other mistakes.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.WebhookSecret) == "" {
		return ErrMissingWebhookSecret
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IdentityProvider == ProviderFirebase {
		if _, err := os.Stat(c.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return fmt.Errorf("firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", c.FirebaseServiceAccountKeyPath)
		}
	}
	return nil
}

// PostgresDSN builds the key/value DSN understood by the GORM postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
