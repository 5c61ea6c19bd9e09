package tasks

import (
	"context"
	"time"
)

// Repository is the task store. Every method except CountByStatus is scoped
// to an owner: rows belonging to other users behave as if they did not exist.
//
// Errors are *apperror.AppError values. Get, Update and Delete return
// NotFound when no row matches both id and owner.
type Repository interface {
	// List returns the owner's tasks matching f, newest first.
	List(ctx context.Context, ownerID string, f ListFilter) ([]Task, error)
	Get(ctx context.Context, ownerID, id string) (*Task, error)
	// Create inserts t. ID, owner, status and timestamps must already be set.
	Create(ctx context.Context, t *Task) error
	// Update applies the non-nil fields of p and sets updated_at in a single
	// conditional statement, returning the updated row.
	Update(ctx context.Context, ownerID, id string, p Patch, updatedAt time.Time) (*Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	// CountByStatus counts all tasks across users, for metrics.
	CountByStatus(ctx context.Context) (map[Status]int, error)
}
