package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingWebhookSecretIsFatal(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "")

	cfg, err := Load()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingWebhookSecret))
	assert.Nil(t, cfg)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec_dGVzdA==")
	t.Setenv("CLERK_SECRET_KEY", "sk_test_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 30*time.Second, cfg.ServerTimeout)
	assert.Equal(t, 60*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "/api/webhooks", cfg.WebhookPath)
	assert.Equal(t, int64(1<<20), cfg.WebhookMaxBodyBytes)
	assert.Equal(t, ProviderClerk, cfg.IdentityProvider)
	assert.Equal(t, "@every 1m", cfg.RoleSyncRetrySchedule)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func TestLoad_ClerkRequiresSecretKey(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec_dGVzdA==")
	t.Setenv("IDENTITY_PROVIDER", ProviderClerk)
	t.Setenv("CLERK_SECRET_KEY", "")

	_, err := Load()

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingWebhookSecret))
	assert.Contains(t, err.Error(), "ClerkSecretKey")
}

func TestLoad_FirebaseRequiresExistingKeyFile(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec_dGVzdA==")
	t.Setenv("IDENTITY_PROVIDER", ProviderFirebase)
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", filepath.Join(t.TempDir(), "missing.json"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	keyPath := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, os.WriteFile(keyPath, []byte("{}"), 0o600))
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", keyPath)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, keyPath, cfg.FirebaseServiceAccountKeyPath)
}

func TestLoad_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec_dGVzdA==")
	t.Setenv("CLERK_SECRET_KEY", "sk_test_123")
	t.Setenv("DB_DRIVER", DriverSQLite)
	t.Setenv("DB_SOURCE", "file::memory:")
	t.Setenv("SERVER_TIMEOUT_SECONDS", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "file::memory:", cfg.DBSource)
	assert.Equal(t, 5*time.Second, cfg.ServerTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("WEBHOOK_SECRET", "whsec_dGVzdA==")
	t.Setenv("IDENTITY_PROVIDER", "auth0")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "IdentityProvider")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable", DBTimezone: "UTC"}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable TimeZone=UTC", cfg.PostgresDSN())
}
