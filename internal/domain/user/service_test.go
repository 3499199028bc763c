package user

import (
	"context"
	"testing"
	"time"

	"github.com/example/plant-shop/internal/auth"
	"github.com/example/plant-shop/internal/domain/domainerr"
	"github.com/example/plant-shop/internal/infrastructure/store/mocks"
	"github.com/example/plant-shop/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService() (*Service, *mocks.MemoryStore, *auth.JWTService) {
	st := mocks.NewMemoryStore()
	tokens := auth.NewJWTService("test-secret-key-for-testing-purposes", time.Hour)
	return NewService(st, tokens, []string{"Admin@Example.com"}), st, tokens
}

// ============================================
// Register Tests
// ============================================

func TestService_Register(t *testing.T) {
	service, _, _ := newTestUserService()

	u, err := service.Register(context.Background(), "  Fern@Example.com ", "secret1")

	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "fern@example.com", u.Email)
	assert.Equal(t, model.DefaultPhone, u.Phone)
	assert.Equal(t, model.DefaultAddress, u.Address)
	assert.Equal(t, model.DefaultAvatar, u.Avatar)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.Empty(t, u.Favorites)
	assert.True(t, auth.CheckPassword("secret1", u.PasswordHash))
}

func TestService_Register_AdminEmail(t *testing.T) {
	service, _, _ := newTestUserService()

	u, err := service.Register(context.Background(), "admin@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, u.Role)
}

func TestService_Register_Duplicate(t *testing.T) {
	service, _, _ := newTestUserService()
	_, err := service.Register(context.Background(), "fern@example.com", "secret1")
	require.NoError(t, err)

	_, err = service.Register(context.Background(), "FERN@example.com", "secret2")

	assert.ErrorIs(t, err, ErrUserExists)
	assert.Equal(t, "User already exists", err.Error())
}

func TestService_Register_Invalid(t *testing.T) {
	service, _, _ := newTestUserService()

	_, err := service.Register(context.Background(), "not-an-email", "secret1")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = service.Register(context.Background(), "a@example.com", "123")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	assert.True(t, domainerr.IsValidation(err))
}

// ============================================
// Login Tests
// ============================================

func TestService_Login(t *testing.T) {
	service, _, tokens := newTestUserService()
	u, err := service.Register(context.Background(), "fern@example.com", "secret1")
	require.NoError(t, err)

	session, err := service.Login(context.Background(), "Fern@example.com", "secret1")

	require.NoError(t, err)
	assert.Equal(t, u.ID, session.UserID)
	assert.Equal(t, "fern@example.com", session.Email)

	claims, err := tokens.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, model.RoleCustomer, claims.Role)
}

func TestService_Login_InvalidCredentials(t *testing.T) {
	service, _, _ := newTestUserService()
	_, err := service.Register(context.Background(), "fern@example.com", "secret1")
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "fern@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(context.Background(), "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// ============================================
// Profile Tests
// ============================================

func TestService_Get_NotFound(t *testing.T) {
	service, _, _ := newTestUserService()

	_, err := service.Get(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_UpdateProfile(t *testing.T) {
	service, _, _ := newTestUserService()
	u, err := service.Register(context.Background(), "fern@example.com", "secret1")
	require.NoError(t, err)
	name := "Fern Gully"
	phone := "555-0100"

	updated, err := service.UpdateProfile(context.Background(), u.ID, model.ProfileUpdate{Name: &name, Phone: &phone})

	require.NoError(t, err)
	assert.Equal(t, "Fern Gully", updated.Name)
	assert.Equal(t, "555-0100", updated.Phone)
	assert.Equal(t, model.DefaultAddress, updated.Address)
}

func TestService_UpdateProfile_EmailConflicts(t *testing.T) {
	service, _, _ := newTestUserService()
	a, err := service.Register(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)
	_, err = service.Register(context.Background(), "b@example.com", "secret1")
	require.NoError(t, err)

	taken := "B@example.com"
	_, err = service.UpdateProfile(context.Background(), a.ID, model.ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailTaken)

	bad := "nope"
	_, err = service.UpdateProfile(context.Background(), a.ID, model.ProfileUpdate{Email: &bad})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestService_UpdateProfile_UnknownUser(t *testing.T) {
	service, _, _ := newTestUserService()
	name := "x"

	_, err := service.UpdateProfile(context.Background(), "ghost", model.ProfileUpdate{Name: &name})

	assert.ErrorIs(t, err, ErrUserNotFound)
}
