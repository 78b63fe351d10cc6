package identity

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockClaimsClient struct {
	mock.Mock
}

func (m *MockClaimsClient) GetUser(ctx context.Context, uid string) (*auth.UserRecord, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.UserRecord), args.Error(1)
}

func (m *MockClaimsClient) SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error {
	args := m.Called(ctx, uid, customClaims)
	return args.Error(0)
}

func TestFirebaseService_UpdateRole_MergesExistingClaims(t *testing.T) {
	client := new(MockClaimsClient)
	svc := newFirebaseService(client, zap.NewNop())
	ctx := context.Background()

	client.On("GetUser", ctx, "uid-1").Return(&auth.UserRecord{
		CustomClaims: map[string]interface{}{"tenant": "acme", "role": "USER"},
	}, nil).Once()
	client.On("SetCustomUserClaims", ctx, "uid-1", map[string]interface{}{"tenant": "acme", "role": "ADMIN"}).Return(nil).Once()

	require.NoError(t, svc.UpdateRole(ctx, "uid-1", "ADMIN"))
	client.AssertExpectations(t)
}

func TestFirebaseService_UpdateRole_GetUserFails(t *testing.T) {
	client := new(MockClaimsClient)
	svc := newFirebaseService(client, zap.NewNop())
	ctx := context.Background()

	client.On("GetUser", ctx, "uid-1").Return(nil, errors.New("user not found")).Once()

	err := svc.UpdateRole(ctx, "uid-1", "USER")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "uid-1")
	client.AssertNotCalled(t, "SetCustomUserClaims", mock.Anything, mock.Anything, mock.Anything)
}

func TestFirebaseService_UpdateRole_SetClaimsFails(t *testing.T) {
	client := new(MockClaimsClient)
	svc := newFirebaseService(client, zap.NewNop())
	ctx := context.Background()

	client.On("GetUser", ctx, "uid-1").Return(&auth.UserRecord{}, nil).Once()
	client.On("SetCustomUserClaims", ctx, "uid-1", map[string]interface{}{"role": "USER"}).Return(errors.New("quota")).Once()

	err := svc.UpdateRole(ctx, "uid-1", "USER")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota")
	client.AssertExpectations(t)
}
