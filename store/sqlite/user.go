package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/users"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// UserStore implements users.Repository.
type UserStore struct {
	db *sqlx.DB
}

var _ users.Repository = (*UserStore)(nil)

func userNotFound() error {
	return apperror.NewNotFoundError("User not found", nil)
}

// Create inserts a new user.
func (s *UserStore) Create(ctx context.Context, u *users.User) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (:id, :name, :email, :password_hash, :created_at, :updated_at)`, u)
	if err != nil {
		return apperror.FromStore(err, "failed to create user")
	}
	return nil
}

// GetByEmail retrieves a user by normalized email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, translate(err, "failed to get user", userNotFound)
	}
	return &u, nil
}

// GetByID retrieves a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, translate(err, "failed to get user", userNotFound)
	}
	return &u, nil
}
