package user

import (
	"fmt"
	"testing"

	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/platform/database"
	"identity_sync_backend/internal/rolesync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with the users and
// role_sync_tasks tables.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		DBDriver:       config.DriverSQLite,
		DBSource:       fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		DBMaxIdleConns: 1,
		DBMaxOpenConns: 1,
		LogLevel:       "error",
	}
	db, cleanup, err := database.NewGORM(cfg, zap.NewNop())
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(cleanup)

	require.NoError(t, db.AutoMigrate(&User{}, &rolesync.Task{}), "Failed to migrate database")
	return db
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&User{}).Count(&n).Error)
	return n
}

// findUserByID returns the row stored under id, or nil.
func findUserByID(t *testing.T, db *gorm.DB, id string) *User {
	t.Helper()
	var rows []User
	require.NoError(t, db.Where("id = ?", id).Limit(1).Find(&rows).Error)
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

// findTask returns the pending role push for userID, or nil.
func findTask(t *testing.T, db *gorm.DB, userID string) *rolesync.Task {
	t.Helper()
	var tasks []rolesync.Task
	require.NoError(t, db.Where("user_id = ?", userID).Limit(1).Find(&tasks).Error)
	if len(tasks) == 0 {
		return nil
	}
	return &tasks[0]
}
