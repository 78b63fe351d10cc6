// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"identity_sync_backend/internal/app"
	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/identity"
	"identity_sync_backend/internal/jobs"
	"identity_sync_backend/internal/platform/database"
	"identity_sync_backend/internal/platform/logger"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/rolesync"
	"identity_sync_backend/internal/user"
	"identity_sync_backend/internal/webhook"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		metrics.NewDefault,

		// Identity provider and role sync
		identity.NewRoleUpdater,
		rolesync.NewGORMRepository,
		rolesync.NewDispatcher,
		wire.Bind(new(user.RolePusher), new(*rolesync.Dispatcher)),
		wire.Bind(new(jobs.RoleRetrier), new(*rolesync.Dispatcher)),

		// Users
		user.NewGORMTransactor,
		user.NewService,
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),

		// Webhook
		webhook.NewVerifier,
		webhook.NewHandler,

		// Jobs
		jobs.NewRoleSyncRetryJob,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
