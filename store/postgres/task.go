package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/tasks"
)

const taskColumns = `id, title, description, status, priority, user_id, created_at, updated_at`

// TaskStore implements tasks.Repository.
type TaskStore struct {
	pool *pgxpool.Pool
}

var _ tasks.Repository = (*TaskStore)(nil)

// args collects positional parameters and hands out their $n placeholders.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

// List returns the owner's tasks matching f, newest first.
func (s *TaskStore) List(ctx context.Context, ownerID string, f tasks.ListFilter) ([]tasks.Task, error) {
	var a args
	where := []string{"user_id = " + a.add(ownerID)}
	if f.Status != "" {
		where = append(where, "status = "+a.add(f.Status))
	}
	if f.Priority != "" {
		where = append(where, "priority = "+a.add(f.Priority))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, seq DESC LIMIT ` + a.add(f.Limit) + ` OFFSET ` + a.add(f.Offset)

	rows, err := s.pool.Query(ctx, query, a...)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to list tasks")
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[tasks.Task])
	if err != nil {
		return nil, apperror.FromStore(err, "failed to list tasks")
	}
	if list == nil {
		list = []tasks.Task{}
	}
	return list, nil
}

// Get returns one of the owner's tasks.
func (s *TaskStore) Get(ctx context.Context, ownerID, id string) (*tasks.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to get task")
	}
	return collectTask(rows, "failed to get task")
}

// Create inserts t.
func (s *TaskStore) Create(ctx context.Context, t *tasks.Task) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.UserID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return apperror.FromStore(err, "failed to create task")
	}
	return nil
}

// Update applies p in one statement scoped to the owner, so a concurrent
// delete or a foreign id both end in NotFound.
func (s *TaskStore) Update(ctx context.Context, ownerID, id string, p tasks.Patch, updatedAt time.Time) (*tasks.Task, error) {
	var (
		a   args
		set []string
	)
	if p.Title != nil {
		set = append(set, "title = "+a.add(*p.Title))
	}
	if p.Description != nil {
		set = append(set, "description = "+a.add(*p.Description))
	}
	if p.Status != nil {
		set = append(set, "status = "+a.add(*p.Status))
	}
	if p.Priority != nil {
		set = append(set, "priority = "+a.add(*p.Priority))
	}
	set = append(set, "updated_at = "+a.add(updatedAt))

	query := `UPDATE tasks SET ` + strings.Join(set, ", ") +
		` WHERE id = ` + a.add(id) + ` AND user_id = ` + a.add(ownerID) +
		` RETURNING ` + taskColumns

	rows, err := s.pool.Query(ctx, query, a...)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to update task")
	}
	return collectTask(rows, "failed to update task")
}

func collectTask(rows pgx.Rows, action string) (*tasks.Task, error) {
	t, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[tasks.Task])
	if err != nil {
		return nil, translate(err, action, tasks.NotFound)
	}
	return &t, nil
}

// Delete removes one of the owner's tasks.
func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return apperror.FromStore(err, "failed to delete task")
	}
	if tag.RowsAffected() == 0 {
		return tasks.NotFound()
	}
	return nil
}

// CountByStatus counts every task by status.
func (s *TaskStore) CountByStatus(ctx context.Context) (map[tasks.Status]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to count tasks")
	}

	counts := make(map[tasks.Status]int)
	var (
		status tasks.Status
		n      int64
	)
	_, err = pgx.ForEachRow(rows, []any{&status, &n}, func() error {
		counts[status] = int(n)
		return nil
	})
	if err != nil {
		return nil, apperror.FromStore(err, "failed to count tasks")
	}
	return counts, nil
}
