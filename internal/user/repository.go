// File: internal/user/repository.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"identity_sync_backend/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the interface for user data operations.
type Repository interface {
	UpsertByEmail(ctx context.Context, profile Profile) (*User, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM user repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// UpsertByEmail inserts the profile as a new USER, or, when a row with the same
// email exists, overwrites its name, email and picture. The id and role of an
// existing row are never touched. The stored row is read back and returned.
func (r *gormRepository) UpsertByEmail(ctx context.Context, profile Profile) (*User, error) {
	row := NewUserFromProfile(profile)
	row.Email = normalizeEmail(row.Email)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "picture", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		if isUniqueViolation(err) {
			// Email did not match but the id is taken by another row.
			return nil, common.ErrConflict.WithDetails(fmt.Sprintf("User id %s already belongs to a different email.", profile.ID))
		}
		return nil, fmt.Errorf("upsert user by email: %w", err)
	}

	stored, err := r.FindByEmail(ctx, row.Email)
	if err != nil {
		return nil, fmt.Errorf("read back upserted user: %w", err)
	}
	return stored, nil
}

// DeleteByID removes the user with the given provider id and reports whether a row existed.
func (r *gormRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		return false, fmt.Errorf("delete user %s: %w", id, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// FindByEmail retrieves a user by their email address.
func (r *gormRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var userModel User
	err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&userModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("User not found with this email.")
		}
		return nil, err
	}
	return &userModel, nil
}

// normalizeEmail only strips surrounding whitespace. Case is kept as sent by
// the provider, so addresses differing in case are distinct rows.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
