package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/tasks"
)

const taskColumns = `id, title, description, status, priority, user_id, created_at, updated_at`

// TaskStore implements tasks.Repository.
type TaskStore struct {
	db *sqlx.DB
}

var _ tasks.Repository = (*TaskStore)(nil)

// List returns the owner's tasks matching f. Rows created in the same
// instant keep insertion order through rowid.
func (s *TaskStore) List(ctx context.Context, ownerID string, f tasks.ListFilter) ([]tasks.Task, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{ownerID}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	args = append(args, f.Limit, f.Offset)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`

	list := []tasks.Task{}
	if err := s.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, apperror.FromStore(err, "failed to list tasks")
	}
	return list, nil
}

// Get returns one of the owner's tasks.
func (s *TaskStore) Get(ctx context.Context, ownerID, id string) (*tasks.Task, error) {
	var t tasks.Task
	err := s.db.GetContext(ctx, &t,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return nil, translate(err, "failed to get task", tasks.NotFound)
	}
	return &t, nil
}

// Create inserts t.
func (s *TaskStore) Create(ctx context.Context, t *tasks.Task) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES (:id, :title, :description, :status, :priority, :user_id, :created_at, :updated_at)`, t)
	if err != nil {
		return apperror.FromStore(err, "failed to create task")
	}
	return nil
}

// Update applies p with a single UPDATE ... WHERE id AND user_id and reads
// the row back in the same transaction.
func (s *TaskStore) Update(ctx context.Context, ownerID, id string, p tasks.Patch, updatedAt time.Time) (_ *tasks.Task, err error) {
	var (
		set  []string
		args []any
	)
	if p.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *p.Title)
	}
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *p.Description)
	}
	if p.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, *p.Priority)
	}
	set = append(set, "updated_at = ?")
	args = append(args, updatedAt, id, ownerID)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to update task")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(set, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, apperror.FromStore(err, "failed to update task")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, apperror.FromStore(err, "failed to update task")
	}
	if n == 0 {
		return nil, tasks.NotFound()
	}

	var t tasks.Task
	if err = tx.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id); err != nil {
		return nil, translate(err, "failed to update task", tasks.NotFound)
	}
	if err = tx.Commit(); err != nil {
		return nil, apperror.FromStore(err, "failed to update task")
	}
	return &t, nil
}

// Delete removes one of the owner's tasks.
func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return apperror.FromStore(err, "failed to delete task")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.FromStore(err, "failed to delete task")
	}
	if n == 0 {
		return tasks.NotFound()
	}
	return nil
}

// CountByStatus counts every task by status.
func (s *TaskStore) CountByStatus(ctx context.Context) (map[tasks.Status]int, error) {
	var rows []struct {
		Status tasks.Status `db:"status"`
		Count  int          `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM tasks GROUP BY status`); err != nil {
		return nil, apperror.FromStore(err, "failed to count tasks")
	}

	counts := make(map[tasks.Status]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
