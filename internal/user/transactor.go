package user

import (
	"context"

	"identity_sync_backend/internal/rolesync"

	"gorm.io/gorm"
)

// TxRepositories are bound to the same database transaction.
type TxRepositories struct {
	Users     Repository
	RoleSyncs rolesync.Repository
}

// Transactor runs fn inside one transaction; returning an error rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos TxRepositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewGORMTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(repos TxRepositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(TxRepositories{
			Users:     NewGORMRepository(tx),
			RoleSyncs: rolesync.NewGORMRepository(tx),
		})
	})
}
