// Package identity pushes locally owned user attributes back to the identity provider.
package identity

import (
	"context"
	"fmt"

	"identity_sync_backend/internal/config"

	"go.uber.org/zap"
)

// RoleMetadataKey is the private metadata (or custom claim) key holding the role.
const RoleMetadataKey = "role"

// RoleUpdater stores a user's authorization role as provider-side private metadata.
type RoleUpdater interface {
	UpdateRole(ctx context.Context, userID, role string) error
}

// NewRoleUpdater builds the RoleUpdater for IDENTITY_PROVIDER.
func NewRoleUpdater(cfg *config.Config, logger *zap.Logger) (RoleUpdater, error) {
	switch cfg.IdentityProvider {
	case config.ProviderClerk, "":
		updater, err := NewClerkRoleUpdater(cfg, logger.Named("clerk"))
		if err != nil {
			return nil, err
		}
		return updater, nil
	case config.ProviderFirebase:
		svc, err := NewFirebaseService(cfg, logger.Named("firebase"))
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.IdentityProvider)
	}
}
