package rolesync

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines the persistence operations for pending role pushes.
type Repository interface {
	Save(ctx context.Context, task *Task) error
	// Complete removes the task only if it still carries role, so a newer
	// role saved while a push was in flight survives.
	Complete(ctx context.Context, userID, role string) error
	Delete(ctx context.Context, userID string) error
	MarkFailed(ctx context.Context, userID string, cause string, nextAttemptAt time.Time) error
	ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]Task, error)
	CountPending(ctx context.Context) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM role sync repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Save upserts the task keyed by user id.
func (r *gormRepository) Save(ctx context.Context, task *Task) error {
	task.Attempts = 0
	task.LastError = nil
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "attempts", "last_error", "next_attempt_at", "updated_at"}),
	}).Create(task).Error
}

func (r *gormRepository) Complete(ctx context.Context, userID, role string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&Task{}).Error
}

func (r *gormRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Task{}).Error
}

func (r *gormRepository) MarkFailed(ctx context.Context, userID string, cause string, nextAttemptAt time.Time) error {
	return r.db.WithContext(ctx).Model(&Task{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"attempts":        gorm.Expr("attempts + 1"),
			"last_error":      cause,
			"next_attempt_at": nextAttemptAt,
		}).Error
}

// ListDue returns tasks whose next attempt is due, oldest first.
func (r *gormRepository) ListDue(ctx context.Context, now time.Time, maxAttempts, limit int) ([]Task, error) {
	var tasks []Task
	err := r.db.WithContext(ctx).
		Where("next_attempt_at <= ? AND attempts < ?", now, maxAttempts).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (r *gormRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Task{}).Count(&n).Error
	return n, err
}
