package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/store/sqlite"
	"github.com/user/taskmanager-go/validation"
)

func newService(t *testing.T) (*auth.Service, *auth.TokenService) {
	t.Helper()
	h, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)

	tokens := newTokens()
	store := sqlite.New(h.SQL)
	svc, err := auth.NewService(store.Users, tokens, validation.New(), bcrypt.MinCost)
	require.NoError(t, err)
	return svc, tokens
}

func TestNewService_RejectsBadCost(t *testing.T) {
	h, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)

	svc, err := auth.NewService(sqlite.New(h.SQL).Users, newTokens(), validation.New(), bcrypt.MaxCost+1)
	assert.Nil(t, svc)
	assert.Equal(t, apperror.ConfigError, apperror.TypeOf(err), "got %v", err)
}

func TestService_Register(t *testing.T) {
	svc, tokens := newService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, auth.RegisterRequest{Name: "  Ann  ", Email: " Ann@Example.COM ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Ann", res.User.Name)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.NotEmpty(t, res.User.ID)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)

	id, err := tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, id.UserID)
	assert.Equal(t, "ann@example.com", id.Email)

	_, err = svc.Register(ctx, auth.RegisterRequest{Name: "Ann Again", Email: "ANN@example.com", Password: "secret2"})
	require.Error(t, err)
	assert.True(t, apperror.IsConflictError(err))
	assert.Equal(t, "User with this email already exists", err.(*apperror.AppError).Message)
}

func TestService_Register_Validation(t *testing.T) {
	svc, _ := newService(t)

	tests := []struct {
		name string
		req  auth.RegisterRequest
	}{
		{"missing name", auth.RegisterRequest{Email: "a@b.co", Password: "secret1"}},
		{"short name after trim", auth.RegisterRequest{Name: " A ", Email: "a@b.co", Password: "secret1"}},
		{"bad email", auth.RegisterRequest{Name: "Ann", Email: "not-an-email", Password: "secret1"}},
		{"short password", auth.RegisterRequest{Name: "Ann", Email: "a@b.co", Password: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)
			assert.True(t, apperror.IsValidationError(err), "got %v", err)
		})
	}
}

func TestService_Login(t *testing.T) {
	svc, tokens := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, auth.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, auth.LoginRequest{Email: "ANN@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	_, err = tokens.Verify(res.Token)
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, auth.LoginRequest{Email: "ann@example.com", Password: "wrong-one"})
	_, unknownEmail := svc.Login(ctx, auth.LoginRequest{Email: "bob@example.com", Password: "secret1"})
	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		assert.Equal(t, apperror.InvalidCredentialsError, apperror.TypeOf(err))
	}
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = svc.Login(ctx, auth.LoginRequest{Email: "ann@example.com"})
	assert.True(t, apperror.IsValidationError(err))
}

func TestService_GetProfile(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, auth.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.GetProfile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)

	_, err = svc.GetProfile(ctx, uuid.NewString())
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.GetProfile(ctx, "not-a-uuid")
	assert.True(t, apperror.IsNotFound(err))
}
