package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/users"
)

const userColumns = `id, name, email, password_hash, created_at, updated_at`

// UserStore implements users.Repository.
type UserStore struct {
	pool *pgxpool.Pool
}

var _ users.Repository = (*UserStore)(nil)

func userNotFound() error {
	return apperror.NewNotFoundError("User not found", nil)
}

// Create inserts a new user. A duplicate email surfaces as a Conflict.
func (s *UserStore) Create(ctx context.Context, u *users.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return apperror.FromStore(err, "failed to create user")
	}
	return nil
}

// GetByEmail retrieves a user by normalized email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByID retrieves a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (*users.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*users.User, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to get user")
	}
	u, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[users.User])
	if err != nil {
		return nil, translate(err, "failed to get user", userNotFound)
	}
	return &u, nil
}
