package user

import (
	"context"
	"errors"
	"testing"

	"identity_sync_backend/internal/common"
	"identity_sync_backend/internal/rolesync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MockRolePusher is a mock implementation of RolePusher.
type MockRolePusher struct {
	mock.Mock
}

func (m *MockRolePusher) Push(ctx context.Context, userID, role string) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

type serviceFixture struct {
	db      *gorm.DB
	pusher  *MockRolePusher
	service *ServiceImplementation
	users   Repository
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()
	db := setupTestDB(t)
	pusher := new(MockRolePusher)
	return &serviceFixture{
		db:      db,
		pusher:  pusher,
		service: NewService(NewGORMTransactor(db), pusher, zap.NewNop()),
		users:   NewGORMRepository(db),
	}
}

var ada = Profile{ID: "u1", Name: "Ada Lovelace", Email: "ada@x.com", Picture: "http://x/a.png"}

func TestService_SyncUser_CreatesUserAndPushesDefaultRole(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.pusher.On("Push", ctx, "u1", RoleUser).Return(nil).Once()

	u, err := f.service.SyncUser(ctx, ada)

	require.NoError(t, err)
	assert.Equal(t, &User{ID: "u1", Name: "Ada Lovelace", Email: "ada@x.com", Picture: "http://x/a.png", Role: RoleUser, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}, u)
	assert.Equal(t, int64(1), countUsers(t, f.db))
	f.pusher.AssertExpectations(t)

	// The pending task is committed with the user; completing it is the pusher's job.
	task := findTask(t, f.db, "u1")
	require.NotNil(t, task)
	assert.Equal(t, RoleUser, task.Role)
}

func TestService_SyncUser_UpdatePreservesRole(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.pusher.On("Push", ctx, "u1", RoleUser).Return(nil).Once()
	_, err := f.service.SyncUser(ctx, ada)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&User{}).Where("id = ?", "u1").Update("role", RoleAdmin).Error)

	f.pusher.On("Push", ctx, "u1", RoleAdmin).Return(nil).Once()
	updated := Profile{ID: "u1", Name: "Augusta King", Email: "ada@x.com", Picture: "http://x/b.png"}
	u, err := f.service.SyncUser(ctx, updated)

	require.NoError(t, err)
	assert.Equal(t, "Augusta King", u.Name)
	assert.Equal(t, "http://x/b.png", u.Picture)
	assert.Equal(t, RoleAdmin, u.Role)
	f.pusher.AssertExpectations(t)
}

func TestService_SyncUser_ReplayConverges(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.pusher.On("Push", ctx, "u1", RoleUser).Return(nil).Twice()

	first, err := f.service.SyncUser(ctx, ada)
	require.NoError(t, err)
	second, err := f.service.SyncUser(ctx, ada)
	require.NoError(t, err)

	assert.Equal(t, int64(1), countUsers(t, f.db))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.Picture, second.Picture)
	assert.Equal(t, first.Role, second.Role)
	f.pusher.AssertExpectations(t)
}

func TestService_SyncUser_PushFailureKeepsLocalWrite(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.pusher.On("Push", ctx, "u1", RoleUser).Return(errors.New("provider down")).Once()

	u, err := f.service.SyncUser(ctx, ada)

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrBadGateway))
	require.NotNil(t, u)
	stored, findErr := f.users.FindByEmail(ctx, "ada@x.com")
	require.NoError(t, findErr)
	assert.Equal(t, RoleUser, stored.Role)
	task := findTask(t, f.db, "u1")
	assert.NotNil(t, task, "the role push stays queued for the retry job")
}

func TestService_SyncUser_StoreFailureRollsBackAndSkipsPush(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	require.NoError(t, f.db.Migrator().DropTable(&rolesync.Task{}))

	_, err := f.service.SyncUser(ctx, ada)

	require.Error(t, err)
	assert.Equal(t, int64(0), countUsers(t, f.db), "the upsert must roll back with the failed task insert")
	f.pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SyncUser_ConflictIsReturnedAsIs(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.pusher.On("Push", ctx, "u1", RoleUser).Return(nil).Once()
	_, err := f.service.SyncUser(ctx, ada)
	require.NoError(t, err)

	_, err = f.service.SyncUser(ctx, Profile{ID: "u1", Name: "Ada", Email: "other@x.com"})

	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrConflict.Code, apiErr.Code)
	f.pusher.AssertExpectations(t)
}

func TestService_SyncUser_RequiresIDAndEmail(t *testing.T) {
	f := setupService(t)

	_, err := f.service.SyncUser(context.Background(), Profile{ID: "u1"})

	assert.True(t, errors.Is(err, common.ErrUnprocessableEntity))
	assert.Equal(t, int64(0), countUsers(t, f.db))
}

func TestService_DeleteUser(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	f.pusher.On("Push", ctx, "u1", RoleUser).Return(errors.New("provider down")).Once()
	_, _ = f.service.SyncUser(ctx, ada) // leaves a pending task behind

	require.NoError(t, f.service.DeleteUser(ctx, "u1"))

	assert.Equal(t, int64(0), countUsers(t, f.db))
	task := findTask(t, f.db, "u1")
	assert.Nil(t, task)
}

func TestService_DeleteUser_RepeatIsNoop(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	assert.NoError(t, f.service.DeleteUser(ctx, "missing"))
	assert.NoError(t, f.service.DeleteUser(ctx, "missing"))
}
