package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/store/sqlite"
	"github.com/user/taskmanager-go/store/storetest"
)

func TestRepositories(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Repos {
		h, err := db.OpenMemory(context.Background())
		require.NoError(t, err)
		t.Cleanup(h.Close)

		s := sqlite.New(h.SQL)
		return storetest.Repos{
			Users: s.Users,
			Tasks: s.Tasks,
			DeleteUser: func(ctx context.Context, id string) error {
				_, err := h.SQL.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
				return err
			},
		}
	})
}
