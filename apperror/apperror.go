// Package apperror defines a centralized system for application-specific errors.
// Every failure that can reach a client is expressed as an *AppError carrying a
// category (ErrorType), a client-safe message and, optionally, the underlying
// error for logs. The category decides both the HTTP status code and the stable
// error code string that the frontend relies on.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is an enumeration (using `iota`) of the application error categories.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// UnauthorizedError represents a missing or unusable bearer token
	UnauthorizedError
	// TokenExpiredError represents a well-formed token past its expiry
	TokenExpiredError
	// InvalidTokenError represents a token with a bad signature or structure
	InvalidTokenError
	// InvalidCredentialsError represents a failed login. It intentionally does not
	// say whether the email or the password was wrong.
	InvalidCredentialsError
	// ForbiddenError represents an authenticated caller without permission
	ForbiddenError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request (e.g. oversized body)
	BadRequestError
	// ConflictError represents a conflict, e.g., resource already exists
	ConflictError
	// InvalidReferenceError represents a foreign key violation
	InvalidReferenceError
	// MissingFieldError represents a not-null violation
	MissingFieldError
	// RateLimitError represents a caller that exceeded the request budget
	RateLimitError
	// ServiceUnavailableError represents an unreachable or exhausted store.
	// Callers may retry.
	ServiceUnavailableError
	// InternalError represents a generic internal server error
	InternalError
	// MigrationError represents an error during database migrations
	MigrationError
)

// Stable error codes. They are part of the public API contract and must not change.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicate          = "DUPLICATE_RESOURCE"
	CodeInvalidReference   = "INVALID_REFERENCE"
	CodeMissingField       = "MISSING_REQUIRED_FIELD"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// AppError is a custom error type for the application.
// It allows wrapping an underlying error (`Err`) for more detailed debugging
// while `Message` stays safe to show to API clients.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the `error` interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error so that `errors.Is` and `errors.As`
// can inspect the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type
func (e *AppError) StatusCode() int {
	switch e.Type {
	case UnauthorizedError, TokenExpiredError, InvalidTokenError, InvalidCredentialsError:
		return http.StatusUnauthorized
	case ForbiddenError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError, BadRequestError, InvalidReferenceError, MissingFieldError:
		return http.StatusBadRequest
	case ConflictError:
		return http.StatusConflict
	case RateLimitError:
		return http.StatusTooManyRequests
	case ServiceUnavailableError:
		return http.StatusServiceUnavailable
	default:
		// DatabaseError, ConfigError, MigrationError, InternalError, UnknownError
		return http.StatusInternalServerError
	}
}

// Code returns the stable error code string sent to clients in the `error` field.
func (e *AppError) Code() string {
	switch e.Type {
	case ValidationError:
		return CodeValidation
	case BadRequestError:
		return CodeBadRequest
	case UnauthorizedError:
		return CodeUnauthorized
	case TokenExpiredError:
		return CodeTokenExpired
	case InvalidTokenError:
		return CodeInvalidToken
	case InvalidCredentialsError:
		return CodeInvalidCredentials
	case ForbiddenError:
		return CodeForbidden
	case NotFoundError:
		return CodeNotFound
	case ConflictError:
		return CodeDuplicate
	case InvalidReferenceError:
		return CodeInvalidReference
	case MissingFieldError:
		return CodeMissingField
	case RateLimitError:
		return CodeRateLimited
	case ServiceUnavailableError:
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}

// NewAppError creates a new AppError. This is the generic constructor; the
// typed constructors below read better at call sites.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewUnauthorizedError creates a new UnauthorizedError (missing or unusable token)
func NewUnauthorizedError(message string, underlyingError error) *AppError {
	return NewAppError(UnauthorizedError, message, underlyingError)
}

// NewTokenExpiredError creates a new TokenExpiredError
func NewTokenExpiredError(message string, underlyingError error) *AppError {
	return NewAppError(TokenExpiredError, message, underlyingError)
}

// NewInvalidTokenError creates a new InvalidTokenError
func NewInvalidTokenError(message string, underlyingError error) *AppError {
	return NewAppError(InvalidTokenError, message, underlyingError)
}

// NewInvalidCredentialsError creates a new InvalidCredentialsError
func NewInvalidCredentialsError(message string) *AppError {
	return NewAppError(InvalidCredentialsError, message, nil)
}

// NewForbiddenError creates a new ForbiddenError
func NewForbiddenError(message string, underlyingError error) *AppError {
	return NewAppError(ForbiddenError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// NewRateLimitError creates a new RateLimitError
func NewRateLimitError(message string) *AppError {
	return NewAppError(RateLimitError, message, nil)
}

// NewServiceUnavailableError creates a new ServiceUnavailableError
func NewServiceUnavailableError(message string, underlyingError error) *AppError {
	return NewAppError(ServiceUnavailableError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewMigrationError creates a new MigrationError
func NewMigrationError(message string, underlyingError error) *AppError {
	return NewAppError(MigrationError, message, underlyingError)
}

// FromError attempts to convert a generic error to an *AppError.
// Wrapped AppErrors are found through `errors.As`.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// TypeOf returns the ErrorType of err, or UnknownError when err is not an AppError.
func TypeOf(err error) ErrorType {
	if ae, ok := FromError(err); ok {
		return ae.Type
	}
	return UnknownError
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return TypeOf(err) == NotFoundError
}

// IsUnauthorized checks if an error is any of the 401 token/credential errors
func IsUnauthorized(err error) bool {
	switch TypeOf(err) {
	case UnauthorizedError, TokenExpiredError, InvalidTokenError, InvalidCredentialsError:
		return true
	}
	return false
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	return TypeOf(err) == ValidationError
}

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool {
	return TypeOf(err) == ConflictError
}

// IsServiceUnavailable checks if an error signals a retryable store outage
func IsServiceUnavailable(err error) bool {
	return TypeOf(err) == ServiceUnavailableError
}
