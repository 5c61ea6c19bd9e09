// This file, `service.go`, contains the business logic for task operations.
// It acts as the "Service" layer, analogous to a Service class in Nest.js.
package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/validation"
)

// Operation labels reported to the OperationRecorder.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// OperationRecorder receives the outcome of every mutating task operation.
// The metrics package provides the Prometheus-backed implementation.
type OperationRecorder interface {
	RecordTaskOperation(operation string, success bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordTaskOperation(string, bool) {}

// Service enforces validation and ownership for task CRUD.
// Every method takes the owner id explicitly; it comes from the identity the
// auth gate resolved for the request.
type Service struct {
	repo     Repository
	validate *validation.Validator
	recorder OperationRecorder
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecorder reports operation outcomes to r.
func WithRecorder(r OperationRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a new Service.
func NewService(repo Repository, validate *validation.Validator, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		validate: validate,
		recorder: noopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotFound is the single answer for missing, foreign and malformed task ids,
// so callers cannot probe for other users' tasks. Repositories return it too.
func NotFound() error {
	return apperror.NewNotFoundError("Task not found", nil)
}

// List returns the owner's tasks, newest first. Status and priority are
// plain equality filters: a value outside the enum matches nothing. A
// missing or non-positive limit means DefaultLimit, larger ones are capped
// at MaxLimit, and a negative offset counts as zero.
func (s *Service) List(ctx context.Context, ownerID string, p ListParams) ([]Task, error) {
	list, err := s.repo.List(ctx, ownerID, p.Filter())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Task{}
	}
	return list, nil
}

// Get returns a single task owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*Task, error) {
	if !validID(id) {
		return nil, NotFound()
	}
	return s.repo.Get(ctx, ownerID, id)
}

// Create validates req and stores a new task for ownerID.
// Title and description are trimmed; the status always starts as "todo" and
// the priority defaults to "medium".
func (s *Service) Create(ctx context.Context, ownerID string, req CreateTaskRequest) (task *Task, err error) {
	defer func() { s.recorder.RecordTaskOperation(OpCreate, err == nil) }()

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}

	now := s.now().UTC()
	task = &Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      StatusTodo,
		Priority:    req.Priority,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies the fields present in p to the owner's task and refreshes
// updatedAt. Fields absent from p keep their values.
func (s *Service) Update(ctx context.Context, ownerID, id string, p Patch) (task *Task, err error) {
	defer func() { s.recorder.RecordTaskOperation(OpUpdate, err == nil) }()

	if p.Empty() {
		return nil, apperror.NewValidationError("No valid fields to update", nil)
	}
	if err := s.checkPatch(&p); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, NotFound()
	}
	return s.repo.Update(ctx, ownerID, id, p, s.now().UTC())
}

func (s *Service) checkPatch(p *Patch) error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if err := s.validate.Var("title", title, "required,max=255"); err != nil {
			return err
		}
		p.Title = &title
	}
	if p.Description != nil {
		desc := strings.TrimSpace(*p.Description)
		if err := s.validate.Var("description", desc, "max=1000"); err != nil {
			return err
		}
		p.Description = &desc
	}
	if p.Status != nil && !p.Status.Valid() {
		return apperror.NewValidationError("status must be one of: todo, in-progress, done", nil)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return apperror.NewValidationError("priority must be one of: low, medium, high", nil)
	}
	return nil
}

// Delete permanently removes the owner's task. Deleting the same id twice
// returns NotFound the second time.
func (s *Service) Delete(ctx context.Context, ownerID, id string) (err error) {
	defer func() { s.recorder.RecordTaskOperation(OpDelete, err == nil) }()

	if !validID(id) {
		return NotFound()
	}
	return s.repo.Delete(ctx, ownerID, id)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
