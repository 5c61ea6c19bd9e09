// Package db provides database connectivity and migration functionality for the task manager.
// It handles establishing connections (a pgx pool for PostgreSQL, a single-connection
// database/sql handle for the embedded SQLite mode), running the embedded schema
// migrations and seeding demo data.
// This package centralizes database concerns, similar to how a database module (e.g., TypeORMModule)
// would be configured in Nest.js, providing a connection or pool to the rest of the application.
package db

import (
	"context"
	"fmt"
	"time"

	// `pgxpool` is part of the `jackc/pgx` suite, providing a robust connection pool for PostgreSQL.
	"github.com/jackc/pgx/v5/pgxpool"
	// `sqlx` extends database/sql with struct scanning; the SQLite store is built on it.
	"github.com/jmoiron/sqlx"
	// modernc.org/sqlite is a pure-Go SQLite driver registered under the name "sqlite".
	_ "modernc.org/sqlite"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/config"
)

// Pool tuning shared by every PostgreSQL pool the service creates.
const (
	maxConnIdleTime = 10 * time.Minute
	maxConnLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// PoolStats is a driver-neutral snapshot of connection pool usage.
type PoolStats struct {
	Total int `json:"total"`
	Idle  int `json:"idle"`
	InUse int `json:"inUse"`
	Max   int `json:"max"`
}

// TableCounts holds row counts for the application tables.
type TableCounts struct {
	Users int64 `json:"users"`
	Tasks int64 `json:"tasks"`
}

// Handle owns the open connection for the configured driver. Exactly one of
// Pool (postgres) or SQL (sqlite) is set.
type Handle struct {
	Driver string
	Pool   *pgxpool.Pool
	SQL    *sqlx.DB

	cfg config.DatabaseConfig
}

// Open connects to the database selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Handle, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		sqlDB, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, SQL: sqlDB, cfg: cfg}, nil
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: cfg.Driver, Pool: pool, cfg: cfg}, nil
	default:
		return nil, apperror.NewConfigError(fmt.Sprintf("unsupported database driver %q", cfg.Driver), nil)
	}
}

// NewPostgresPool establishes a pgxpool connection pool and verifies it with a ping.
// Acquiring a connection from an exhausted pool blocks until the request
// context ends; the store layer reports that as a retryable outage.
func NewPostgresPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	// `pgxpool.ParseConfig` parses the DSN string into a `pgxpool.Config` struct.
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresDSN())
	if err != nil {
		return nil, apperror.NewConfigError(fmt.Sprintf("error parsing DSN for database %s", cfg.Name), err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.MaxConnLifetime = maxConnLifetime
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.Name), err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close() // Clean up on connection failure
		return nil, apperror.NewServiceUnavailableError(fmt.Sprintf("error connecting to the database %s", cfg.Name), err)
	}

	return pool, nil
}

// OpenSQLite opens (or creates) the SQLite database at path. Use ":memory:"
// for a throwaway database; the single-connection pool keeps it alive for
// the lifetime of the handle.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	sqlDB, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to open sqlite database", err)
	}

	// SQLite allows a single writer; one connection also keeps an in-memory
	// database from being dropped between queries.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, pragma); err != nil {
			sqlDB.Close()
			return nil, apperror.NewDatabaseError("failed to set sqlite pragma", err)
		}
	}

	return sqlDB, nil
}

// Ping verifies that the database answers a trivial query.
func (h *Handle) Ping(ctx context.Context) error {
	var err error
	if h.Pool != nil {
		err = h.Pool.Ping(ctx)
	} else {
		err = h.SQL.PingContext(ctx)
	}
	if err != nil {
		return apperror.FromStore(err, "database ping failed")
	}
	return nil
}

// Stats reports connection usage for health checks and metrics.
func (h *Handle) Stats() PoolStats {
	if h.Pool != nil {
		s := h.Pool.Stat()
		return PoolStats{
			Total: int(s.TotalConns()),
			Idle:  int(s.IdleConns()),
			InUse: int(s.AcquiredConns()),
			Max:   int(s.MaxConns()),
		}
	}
	s := h.SQL.Stats()
	return PoolStats{
		Total: s.OpenConnections,
		Idle:  s.Idle,
		InUse: s.InUse,
		Max:   s.MaxOpenConnections,
	}
}

// CountTables counts the rows of the users and tasks tables. It doubles as a
// check that both tables are reachable.
func (h *Handle) CountTables(ctx context.Context) (TableCounts, error) {
	var counts TableCounts
	queries := []struct {
		sql  string
		dest *int64
	}{
		{"SELECT COUNT(*) FROM users", &counts.Users},
		{"SELECT COUNT(*) FROM tasks", &counts.Tasks},
	}

	for _, q := range queries {
		var err error
		if h.Pool != nil {
			err = h.Pool.QueryRow(ctx, q.sql).Scan(q.dest)
		} else {
			err = h.SQL.GetContext(ctx, q.dest, q.sql)
		}
		if err != nil {
			return TableCounts{}, apperror.FromStore(err, "failed to count rows")
		}
	}
	return counts, nil
}

// Close releases the underlying pool or connection.
func (h *Handle) Close() {
	if h.Pool != nil {
		h.Pool.Close()
	}
	if h.SQL != nil {
		h.SQL.Close()
	}
}

// OpenMemory opens a private in-memory SQLite database and migrates it up.
// Tests and the `serve --memory` mode use it.
func OpenMemory(ctx context.Context) (*Handle, error) {
	sqlDB, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		return nil, err
	}
	h := &Handle{
		Driver: config.DriverSQLite,
		SQL:    sqlDB,
		cfg:    config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: ":memory:"},
	}
	if err := h.Migrate(Up); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}
