// Package postgres implements the user and task repositories on PostgreSQL
// through a pgx connection pool. Rows are mapped onto the domain structs by
// their `db` tags with pgx.RowToStructByName.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskmanager-go/apperror"
)

// Store bundles both repositories over one pool.
type Store struct {
	Users *UserStore
	Tasks *TaskStore
}

// New wraps a connected, migrated pool (see db.NewPostgresPool and db.MigratePostgres).
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		Users: &UserStore{pool: pool},
		Tasks: &TaskStore{pool: pool},
	}
}

func translate(err error, action string, notFound func() error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound()
	}
	return apperror.FromStore(err, action)
}
