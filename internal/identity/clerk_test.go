package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"identity_sync_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClerkTestServer(t *testing.T, status int, seen *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/users/u1/metadata", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, seen))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"errors":[{"code":"resource_not_found","message":"not found"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"object":"user","id":"u1","private_metadata":{"role":"USER"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClerkRoleUpdater_UpdateRole(t *testing.T) {
	var seen map[string]interface{}
	srv := newClerkTestServer(t, http.StatusOK, &seen)

	updater, err := NewClerkRoleUpdater(&config.Config{ClerkSecretKey: "sk_test_123", ClerkAPIURL: srv.URL + "/v1"}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, updater.UpdateRole(context.Background(), "u1", "USER"))
	assert.Equal(t, map[string]interface{}{"role": "USER"}, seen["private_metadata"])
	assert.NotContains(t, seen, "public_metadata")
}

func TestClerkRoleUpdater_UpdateRole_ProviderError(t *testing.T) {
	var seen map[string]interface{}
	srv := newClerkTestServer(t, http.StatusNotFound, &seen)

	updater, err := NewClerkRoleUpdater(&config.Config{ClerkSecretKey: "sk_test_123", ClerkAPIURL: srv.URL + "/v1"}, zap.NewNop())
	require.NoError(t, err)

	err = updater.UpdateRole(context.Background(), "u1", "USER")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "u1")
}

func TestNewClerkRoleUpdater_RequiresKey(t *testing.T) {
	_, err := NewClerkRoleUpdater(&config.Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewRoleUpdater_SelectsProvider(t *testing.T) {
	updater, err := NewRoleUpdater(&config.Config{IdentityProvider: config.ProviderClerk, ClerkSecretKey: "sk_test_123"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &ClerkRoleUpdater{}, updater)

	_, err = NewRoleUpdater(&config.Config{IdentityProvider: config.ProviderFirebase}, zap.NewNop())
	assert.Error(t, err, "firebase without a key path must fail")

	_, err = NewRoleUpdater(&config.Config{IdentityProvider: "okta"}, zap.NewNop())
	assert.Error(t, err)
}
