// Package sqlite implements the user and task repositories on an embedded
// SQLite database (modernc.org/sqlite, no cgo) with sqlx for struct scanning.
// It backs local development (DB_DRIVER=sqlite) and the test suites.
package sqlite

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/user/taskmanager-go/apperror"
)

// Store bundles both repositories over one database handle.
type Store struct {
	Users *UserStore
	Tasks *TaskStore
}

// New wraps an open, migrated database (see db.OpenSQLite and db.MigrateSQLite).
func New(db *sqlx.DB) *Store {
	return &Store{
		Users: &UserStore{db: db},
		Tasks: &TaskStore{db: db},
	}
}

// translate maps sql.ErrNoRows to notFound and everything else through
// apperror.FromStore.
func translate(err error, action string, notFound func() error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound()
	}
	return apperror.FromStore(err, action)
}
