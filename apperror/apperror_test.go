package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusAndCode(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidationError("bad", nil), http.StatusBadRequest, CodeValidation},
		{"bad request", NewBadRequestError("bad body", nil), http.StatusBadRequest, CodeBadRequest},
		{"unauthorized", NewUnauthorizedError("no token", nil), http.StatusUnauthorized, CodeUnauthorized},
		{"expired", NewTokenExpiredError("expired", nil), http.StatusUnauthorized, CodeTokenExpired},
		{"invalid token", NewInvalidTokenError("bad sig", nil), http.StatusUnauthorized, CodeInvalidToken},
		{"credentials", NewInvalidCredentialsError("nope"), http.StatusUnauthorized, CodeInvalidCredentials},
		{"forbidden", NewForbiddenError("no", nil), http.StatusForbidden, CodeForbidden},
		{"not found", NewNotFoundError("missing", nil), http.StatusNotFound, CodeNotFound},
		{"conflict", NewConflictError("dup", nil), http.StatusConflict, CodeDuplicate},
		{"rate limited", NewRateLimitError("slow down"), http.StatusTooManyRequests, CodeRateLimited},
		{"unavailable", NewServiceUnavailableError("down", nil), http.StatusServiceUnavailable, CodeServiceUnavailable},
		{"database", NewDatabaseError("db", nil), http.StatusInternalServerError, CodeInternal},
		{"internal", NewInternalError("boom", nil), http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
			assert.Equal(t, tt.wantCode, tt.err.Code())
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := NewDatabaseError("failed to create task", cause)

	assert.Equal(t, "failed to create task: disk on fire", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewNotFoundError("plain", nil).Error())
}

func TestFromError_FindsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewNotFoundError("task not found", nil))

	ae, ok := FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, NotFoundError, ae.Type)
	assert.True(t, IsNotFound(wrapped))

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)
	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestIsUnauthorized_CoversAllTokenErrors(t *testing.T) {
	assert.True(t, IsUnauthorized(NewUnauthorizedError("x", nil)))
	assert.True(t, IsUnauthorized(NewTokenExpiredError("x", nil)))
	assert.True(t, IsUnauthorized(NewInvalidTokenError("x", nil)))
	assert.True(t, IsUnauthorized(NewInvalidCredentialsError("x")))
	assert.False(t, IsUnauthorized(NewForbiddenError("x", nil)))
}

func TestFromStore_PostgresCodes(t *testing.T) {
	tests := []struct {
		code     string
		wantType ErrorType
	}{
		{"23505", ConflictError},
		{"23503", InvalidReferenceError},
		{"23502", MissingFieldError},
		{"22P02", ValidationError},
		{"53300", ServiceUnavailableError},
		{"08006", ServiceUnavailableError},
		{"42P01", DatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := FromStore(fmt.Errorf("query: %w", &pgconn.PgError{Code: tt.code, Message: "raw"}), "failed")
			require.NotNil(t, err)
			assert.Equal(t, tt.wantType, err.Type)
			assert.NotContains(t, err.Message, "raw", "driver text must not leak into the client message")
		})
	}
}

func TestFromStore_SQLiteMessages(t *testing.T) {
	tests := []struct {
		msg      string
		wantType ErrorType
	}{
		{"constraint failed: UNIQUE constraint failed: users.email (2067)", ConflictError},
		{"constraint failed: FOREIGN KEY constraint failed (787)", InvalidReferenceError},
		{"constraint failed: NOT NULL constraint failed: tasks.title (1299)", MissingFieldError},
		{"database is locked (5) (SQLITE_BUSY)", ServiceUnavailableError},
		{"no such table: tasks", DatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := FromStore(errors.New(tt.msg), "failed")
			assert.Equal(t, tt.wantType, err.Type)
		})
	}
}

func TestFromStore_Unavailable(t *testing.T) {
	err := FromStore(fmt.Errorf("acquire: %w", context.DeadlineExceeded), "failed to list tasks")
	assert.Equal(t, ServiceUnavailableError, err.Type)
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode())
}

func TestFromStore_ClosedPool(t *testing.T) {
	err := FromStore(fmt.Errorf("failed to acquire connection: %w", puddle.ErrClosedPool), "failed to get task")
	assert.Equal(t, ServiceUnavailableError, err.Type)
	assert.ErrorIs(t, err, puddle.ErrClosedPool)
}

func TestFromStore_PassesThroughAppErrors(t *testing.T) {
	orig := NewNotFoundError("task not found", nil)
	assert.Same(t, orig, FromStore(orig, "ignored"))
	assert.Nil(t, FromStore(nil, "ignored"))
}
