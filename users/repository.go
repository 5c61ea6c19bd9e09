package users

import "context"

// Repository is the credential store. Implementations live in store/postgres
// and store/sqlite.
//
// Errors are *apperror.AppError values: NotFound when no row matches,
// Conflict when the email is already taken, ServiceUnavailable when the
// database cannot be reached.
type Repository interface {
	// Create inserts u. ID, timestamps and the normalized email must already be set.
	Create(ctx context.Context, u *User) error
	// GetByEmail looks a user up by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByID looks a user up by id.
	GetByID(ctx context.Context, id string) (*User, error)
}
