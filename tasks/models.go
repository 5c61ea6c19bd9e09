// Package tasks is responsible for all functionality related to tasks: the task model,
// the storage contract, the ownership-scoped service and its HTTP handlers.
// It follows the modular structure seen in other parts of the application (e.g., `auth`),
// akin to a "TasksModule" in Nest.js.
//
// This file, `models.go`, defines the entities and the Data Transfer Objects (DTOs)
// used by the tasks feature.
package tasks

import "time"

// Status is the workflow state of a task. Any status may move to any other.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists every valid status, in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Priority ranks a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a single to-do item. Every task has exactly one owner (UserID) and
// is only ever visible through that owner's identity.
type Task struct {
	ID          string    `json:"id" db:"id" example:"9b2d7c1e-3a4f-4e5b-8c6d-7e8f9a0b1c2d"`
	Title       string    `json:"title" db:"title" example:"Buy milk"`
	Description string    `json:"description" db:"description" example:"Two litres, semi-skimmed"`
	Status      Status    `json:"status" db:"status" example:"todo"`
	Priority    Priority  `json:"priority" db:"priority" example:"medium"`
	UserID      string    `json:"userId" db:"user_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CreateTaskRequest is the body of POST /api/tasks.
// Status is not accepted: new tasks always start as "todo".
type CreateTaskRequest struct {
	Title       string   `json:"title" validate:"required,max=255" example:"Buy milk"`
	Description string   `json:"description" validate:"max=1000" example:"Two litres"`
	Priority    Priority `json:"priority" validate:"omitempty,oneof=low medium high" example:"medium"`
}

// Patch is the body of PUT /api/tasks/{id}. Only non-nil fields are applied;
// JSON keys outside this set are ignored by the decoder.
type Patch struct {
	Title       *string   `json:"title,omitempty" example:"Buy oat milk"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty" example:"done"`
	Priority    *Priority `json:"priority,omitempty" example:"high"`
}

// Empty reports whether the patch carries no recognized field.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil
}

// ListParams carries the raw list options from the query string. Nil means
// "not given".
type ListParams struct {
	Status   string
	Priority string
	Limit    *int
	Offset   *int
}

// Filter normalizes p into the form the repository expects.
func (p ListParams) Filter() ListFilter {
	f := ListFilter{
		Status:   Status(p.Status),
		Priority: Priority(p.Priority),
		Limit:    DefaultLimit,
	}
	if p.Limit != nil && *p.Limit > 0 {
		f.Limit = min(*p.Limit, MaxLimit)
	}
	if p.Offset != nil && *p.Offset > 0 {
		f.Offset = *p.Offset
	}
	return f
}

// ListFilter is the normalized form of ListParams handed to the repository.
type ListFilter struct {
	Status   Status
	Priority Priority
	Limit    int
	Offset   int
}

// Pagination bounds for List.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)
