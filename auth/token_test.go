package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/auth"
)

const testSecret = "test-secret-with-enough-bytes-for-hs256"

func newTokens() *auth.TokenService {
	return auth.NewTokenService(testSecret, time.Hour, "taskmanager")
}

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := newTokens()

	raw, expiresAt, err := tokens.Issue("user-1", "ann@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	id, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: "user-1", Email: "ann@example.com"}, id)
}

func TestTokenService_Verify_Failures(t *testing.T) {
	tokens := newTokens()

	past := tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, _, err := past.Issue("user-1", "ann@example.com")
	require.NoError(t, err)

	foreign, _, err := auth.NewTokenService("another-secret-another-secret-1234", time.Hour, "taskmanager").Issue("user-1", "a@b.c")
	require.NoError(t, err)

	otherIssuer, _, err := auth.NewTokenService(testSecret, time.Hour, "someone-else").Issue("user-1", "a@b.c")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": "user-1",
		"iss":    "taskmanager",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"userId": "user-1",
		"iss":    "taskmanager",
		"exp":    time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "taskmanager",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": "user-1",
		"iss":    "taskmanager",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name     string
		raw      string
		wantType apperror.ErrorType
	}{
		{"expired", expired, apperror.TokenExpiredError},
		{"wrong secret", foreign, apperror.InvalidTokenError},
		{"alg none", none, apperror.InvalidTokenError},
		{"other algorithm", hs512, apperror.InvalidTokenError},
		{"garbage", "not-a-token", apperror.InvalidTokenError},
		{"wrong issuer", otherIssuer, apperror.UnauthorizedError},
		{"missing userId", noUser, apperror.UnauthorizedError},
		{"missing exp", noExpiry, apperror.UnauthorizedError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperror.TypeOf(err), "got %v", err)
			assert.True(t, apperror.IsUnauthorized(err))
		})
	}
}
