package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	// `golang-migrate` is a popular library for database migrations in Go.
	// It supports various database drivers and migration source formats.
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	// `lib/pq` backs the database/sql connection that golang-migrate's postgres driver runs on.
	// The application itself talks to PostgreSQL through pgxpool.
	_ "github.com/lib/pq"

	"github.com/user/taskmanager-go/apperror"
)

// Migrations are compiled into the binary, one directory per dialect.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Direction selects which way Migrate moves the schema.
type Direction int

const (
	// Up applies every pending migration.
	Up Direction = iota
	// Down rolls back the most recent migration.
	Down
)

// ParseDirection maps "up"/"down" command arguments to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up", "":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return Up, apperror.NewValidationError(fmt.Sprintf("unknown migration direction %q: expected up or down", s), nil)
	}
}

// Migrate moves the schema of the open database in the given direction.
func (h *Handle) Migrate(dir Direction) error {
	if h.SQL != nil {
		return MigrateSQLite(h.SQL.DB, dir)
	}
	return MigratePostgres(h.cfg.PostgresDSN(), dir)
}

// MigratePostgres runs the postgres migrations against dsn over a dedicated
// lib/pq connection, because golang-migrate's postgres driver needs a *sql.DB.
func MigratePostgres(dsn string, dir Direction) error {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return apperror.NewMigrationError("failed to open migration connection", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return apperror.NewMigrationError("failed to create postgres migration driver", err)
	}
	return run("postgres", driver, dir)
}

// MigrateSQLite runs the sqlite migrations on sqlDB. The handle stays open
// afterwards.
func MigrateSQLite(sqlDB *sql.DB, dir Direction) error {
	driver, err := sqlite.WithInstance(sqlDB, &sqlite.Config{})
	if err != nil {
		return apperror.NewMigrationError("failed to create sqlite migration driver", err)
	}
	return run("sqlite", driver, dir)
}

func run(dialect string, driver database.Driver, dir Direction) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return apperror.NewMigrationError("failed to open embedded migrations", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return apperror.NewMigrationError("failed to read embedded migrations", err)
	}
	// Only the source is closed here. Closing the migrate instance would also
	// close the caller's database handle.
	defer src.Close()

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return apperror.NewMigrationError("failed to create migrator", err)
	}

	switch dir {
	case Down:
		err = m.Steps(-1)
	default:
		err = m.Up()
	}
	// `migrate.ErrNoChange` is returned if there is nothing to apply, which is not an actual error.
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperror.NewMigrationError(fmt.Sprintf("failed to run %s migrations", dialect), err)
	}
	return nil
}
