// Package rolesync keeps track of role pushes to the identity provider so that
// a failed push is retried instead of silently leaving the provider stale.
package rolesync

import "time"

// Task is a pending role push for one provider user. There is at most one task
// per user; saving again replaces the role and resets the attempt counter.
type Task struct {
	UserID        string    `gorm:"type:varchar(255);primaryKey"`
	Role          string    `gorm:"type:varchar(50);not null"`
	Attempts      int       `gorm:"not null;default:0"`
	LastError     *string   `gorm:"type:text"`
	NextAttemptAt time.Time `gorm:"not null;index"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for the Task model.
func (Task) TableName() string {
	return "role_sync_tasks"
}

// RetryResult summarises one RetryDue run.
type RetryResult struct {
	Attempted int
	Synced    int
	Failed    int
	Pending   int64
}
