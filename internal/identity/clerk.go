package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"identity_sync_backend/internal/config"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	"go.uber.org/zap"
)

// ClerkRoleUpdater writes the role into a Clerk user's private metadata.
type ClerkRoleUpdater struct {
	users  *clerkuser.Client
	logger *zap.Logger
}

// NewClerkRoleUpdater creates a Clerk backend client from CLERK_SECRET_KEY and,
// when set, CLERK_API_URL.
func NewClerkRoleUpdater(cfg *config.Config, logger *zap.Logger) (*ClerkRoleUpdater, error) {
	if cfg.ClerkSecretKey == "" {
		return nil, errors.New("clerk secret key is required")
	}

	clientCfg := &clerk.ClientConfig{}
	clientCfg.Key = clerk.String(cfg.ClerkSecretKey)
	clientCfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	if cfg.ClerkAPIURL != "" {
		clientCfg.URL = clerk.String(cfg.ClerkAPIURL)
	}

	return &ClerkRoleUpdater{
		users:  clerkuser.NewClient(clientCfg),
		logger: logger,
	}, nil
}

// UpdateRole merges {"role": role} into the user's private metadata.
func (c *ClerkRoleUpdater) UpdateRole(ctx context.Context, userID, role string) error {
	raw, err := json.Marshal(map[string]string{RoleMetadataKey: role})
	if err != nil {
		return fmt.Errorf("encode private metadata: %w", err)
	}
	privateMetadata := json.RawMessage(raw)

	if _, err := c.users.UpdateMetadata(ctx, userID, &clerkuser.UpdateMetadataParams{
		PrivateMetadata: &privateMetadata,
	}); err != nil {
		c.logger.Error("Failed to update Clerk private metadata", zap.String("userID", userID), zap.Error(err))
		return fmt.Errorf("update clerk metadata for %s: %w", userID, err)
	}

	c.logger.Debug("Clerk private metadata updated", zap.String("userID", userID), zap.String("role", role))
	return nil
}
