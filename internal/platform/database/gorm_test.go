package database

import (
	"testing"

	"identity_sync_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewGORM_SQLiteInMemory(t *testing.T) {
	cfg := &config.Config{
		DBDriver:       config.DriverSQLite,
		DBSource:       "file:gorm_test?mode=memory&cache=shared",
		DBMaxIdleConns: 1,
		DBMaxOpenConns: 1,
		LogLevel:       "error",
	}

	db, cleanup, err := NewGORM(cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: config.DriverPostgres})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: config.DriverSQLite, DBSource: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}
