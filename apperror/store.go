package apperror

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	// pgxpool hands out connections through puddle; a closed pool surfaces puddle's error.
	"github.com/jackc/puddle/v2"
)

// PostgreSQL error codes the application translates.
const (
	pgUniqueViolation        = "23505"
	pgForeignKeyViolation    = "23503"
	pgNotNullViolation       = "23502"
	pgCheckViolation         = "23514"
	pgInvalidTextRepresent   = "22P02"
	pgTooManyConnections     = "53300"
	pgCannotConnectNow       = "57P03"
	pgAdminShutdown          = "57P01"
	pgConnectionFailureClass = "08"
)

// FromStore translates an error returned by a store (pgx or database/sql
// over sqlite) into the application taxonomy. Raw driver codes and messages
// are kept in Err for logs and never become the client-facing Message.
//
// Errors that already are *AppError pass through unchanged.
func FromStore(err error, action string) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := FromError(err); ok {
		return ae
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return NewConflictError("resource already exists", err)
		case pgErr.Code == pgForeignKeyViolation:
			return NewAppError(InvalidReferenceError, "invalid reference", err)
		case pgErr.Code == pgNotNullViolation:
			return NewAppError(MissingFieldError, "required field missing", err)
		case pgErr.Code == pgCheckViolation, pgErr.Code == pgInvalidTextRepresent:
			return NewValidationError("invalid data format", err)
		case pgErr.Code == pgTooManyConnections, pgErr.Code == pgCannotConnectNow,
			pgErr.Code == pgAdminShutdown, strings.HasPrefix(pgErr.Code, pgConnectionFailureClass):
			return NewServiceUnavailableError("database unavailable", err)
		}
		return NewDatabaseError(action, err)
	}

	if isUnavailable(err) {
		return NewServiceUnavailableError("database unavailable", err)
	}

	// modernc.org/sqlite reports constraint failures through its message text.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return NewConflictError("resource already exists", err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return NewAppError(InvalidReferenceError, "invalid reference", err)
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return NewAppError(MissingFieldError, "required field missing", err)
	case strings.Contains(msg, "CHECK constraint failed"):
		return NewValidationError("invalid data format", err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return NewServiceUnavailableError("database unavailable", err)
	}

	return NewDatabaseError(action, err)
}

// isUnavailable reports connection-level failures: the pool could not hand
// out a connection, the server could not be reached, or the acquire timed out.
func isUnavailable(err error) bool {
	var connectErr *pgconn.ConnectError
	switch {
	case errors.As(err, &connectErr):
		return true
	case errors.Is(err, puddle.ErrClosedPool), errors.Is(err, sql.ErrConnDone):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case pgconn.Timeout(err):
		return true
	}
	return false
}
