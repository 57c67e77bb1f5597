package service

import (
	"testing"

	"github.com/centsible/centsible-backend/internal/domain"
	"github.com/centsible/centsible-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateUser_CreatesOnFirstLogin(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	svc := NewUserService(userRepo)

	name := "Alex"
	result, err := svc.AuthenticateUser("auth0|123", "alex@example.com", &name, nil)

	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.Equal(t, "alex@example.com", result.User.Email)
	require.NotNil(t, result.User.Name)
	assert.Equal(t, "Alex", *result.User.Name)
}

func TestAuthenticateUser_ReturnsExistingUser(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	svc := NewUserService(userRepo)

	existing := &domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|123",
		Email:   "alex@example.com",
	}
	userRepo.AddUser(existing)

	result, err := svc.AuthenticateUser("auth0|123", "alex@example.com", nil, nil)

	require.NoError(t, err)
	assert.False(t, result.IsNewUser)
	assert.Equal(t, existing.ID, result.User.ID)
}

func TestUpdateName_Validates(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	svc := NewUserService(userRepo)

	userRepo.AddUser(&domain.User{
		ID:      uuid.New(),
		Auth0ID: "auth0|123",
		Email:   "alex@example.com",
	})

	_, err := svc.UpdateName("auth0|123", "")
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	long := make([]byte, domain.MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.UpdateName("auth0|123", string(long))
	assert.ErrorIs(t, err, domain.ErrNameTooLong)

	updated, err := svc.UpdateName("auth0|123", "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", *updated.Name)
}

func TestGetUserIDByAuth0ID(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	svc := NewUserService(userRepo)

	user := &domain.User{ID: uuid.New(), Auth0ID: "auth0|abc", Email: "a@b.c"}
	userRepo.AddUser(user)

	id, err := svc.GetUserIDByAuth0ID("auth0|abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, err = svc.GetUserIDByAuth0ID("auth0|missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
