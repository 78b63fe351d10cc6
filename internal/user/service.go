// File: internal/user/service.go
package user

import (
	"context"
	"fmt"
	"time"

	"identity_sync_backend/internal/common"
	"identity_sync_backend/internal/rolesync"

	"go.uber.org/zap"
)

// Service applies provider user events to the local store.
type Service interface {
	SyncUser(ctx context.Context, profile Profile) (*User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RolePusher sends a role to the identity provider. A pending rolesync.Task must
// exist for the user before Push is called.
type RolePusher interface {
	Push(ctx context.Context, userID, role string) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	tx     Transactor
	pusher RolePusher
	logger *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new user service.
func NewService(tx Transactor, pusher RolePusher, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		tx:     tx,
		pusher: pusher,
		logger: logger.Named("UserService"),
	}
}

// SyncUser upserts the profile by email and then mirrors the stored role to the
// provider under profile.ID. The local write and the pending push are committed
// together before the provider is called; if the push fails the local write
// stays and the task is left for the retry job.
func (s *ServiceImplementation) SyncUser(ctx context.Context, profile Profile) (*User, error) {
	if profile.ID == "" || profile.Email == "" {
		return nil, common.ErrUnprocessableEntity.WithDetails("User id and email are required.")
	}

	var stored *User
	err := s.tx.WithinTransaction(ctx, func(repos TxRepositories) error {
		u, err := repos.Users.UpsertByEmail(ctx, profile)
		if err != nil {
			return err
		}
		stored = u
		return repos.RoleSyncs.Save(ctx, &rolesync.Task{
			UserID:        profile.ID,
			Role:          u.EffectiveRole(),
			NextAttemptAt: time.Now().UTC(),
		})
	})
	if err != nil {
		s.logger.Error("Failed to sync user", zap.String("userID", profile.ID), zap.String("email", profile.Email), zap.Error(err))
		if _, ok := common.IsAPIError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("sync user %s: %w", profile.ID, err)
	}

	role := stored.EffectiveRole()
	if err := s.pusher.Push(ctx, profile.ID, role); err != nil {
		// The 502 makes the provider redeliver while the retry job replays the
		// same task, so the role may be pushed more than once. The metadata
		// write is idempotent, so duplicates are expected and harmless.
		return stored, common.ErrBadGateway.WithDetails(fmt.Sprintf("User stored locally but the role could not be pushed to the identity provider: %v", err))
	}

	s.logger.Info("User synced",
		zap.String("userID", profile.ID),
		zap.String("localID", stored.ID),
		zap.String("role", role),
	)
	return stored, nil
}

// DeleteUser removes the user with the given provider id together with any
// pending role push. Deleting an unknown id is a no-op so that redelivered
// deletions succeed.
func (s *ServiceImplementation) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return common.ErrUnprocessableEntity.WithDetails("User id is required.")
	}

	var existed bool
	err := s.tx.WithinTransaction(ctx, func(repos TxRepositories) error {
		var err error
		if existed, err = repos.Users.DeleteByID(ctx, id); err != nil {
			return err
		}
		return repos.RoleSyncs.Delete(ctx, id)
	})
	if err != nil {
		s.logger.Error("Failed to delete user", zap.String("userID", id), zap.Error(err))
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	if !existed {
		s.logger.Info("User delete ignored, no local row", zap.String("userID", id))
		return nil
	}
	s.logger.Info("User deleted", zap.String("userID", id))
	return nil
}
