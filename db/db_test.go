package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/store/sqlite"
	"github.com/user/taskmanager-go/tasks"
)

func openMemory(t *testing.T) *db.Handle {
	t.Helper()
	h, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestOpenMemory_MigratesSchema(t *testing.T) {
	h := openMemory(t)
	ctx := context.Background()

	require.NoError(t, h.Ping(ctx))

	counts, err := h.CountTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, db.TableCounts{}, counts)

	stats := h.Stats()
	assert.Equal(t, 1, stats.Max)
}

func TestMigrate_DownAndUpAgain(t *testing.T) {
	h := openMemory(t)
	ctx := context.Background()

	// One step down drops the tasks table only.
	require.NoError(t, h.Migrate(db.Down))
	_, err := h.CountTables(ctx)
	require.Error(t, err)

	require.NoError(t, h.Migrate(db.Up))
	_, err = h.CountTables(ctx)
	require.NoError(t, err)

	// Nothing pending is not an error.
	require.NoError(t, h.Migrate(db.Up))
}

func TestParseDirection(t *testing.T) {
	d, err := db.ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, db.Up, d)

	d, err = db.ParseDirection("down")
	require.NoError(t, err)
	assert.Equal(t, db.Down, d)

	_, err = db.ParseDirection("sideways")
	assert.True(t, apperror.IsValidationError(err))
}

func TestSeed_IsIdempotent(t *testing.T) {
	h := openMemory(t)
	store := sqlite.New(h.SQL)
	ctx := context.Background()

	created, err := db.Seed(ctx, store.Users, store.Tasks, bcrypt.MinCost, nil)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = db.Seed(ctx, store.Users, store.Tasks, bcrypt.MinCost, nil)
	require.NoError(t, err)
	assert.False(t, created)

	counts, err := h.CountTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Users)
	assert.Equal(t, int64(5), counts.Tasks)

	demo, err := store.Users.GetByEmail(ctx, db.DemoEmail)
	require.NoError(t, err)
	assert.Equal(t, db.DemoName, demo.Name)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(demo.PasswordHash), []byte(db.DemoPassword)))

	list, err := store.Tasks.List(ctx, demo.ID, tasks.ListFilter{Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	require.Len(t, list, 5)
	assert.Equal(t, "Security Hardening", list[0].Title)
	assert.Equal(t, "Learn Docker", list[4].Title)
}
