// Package storetest holds the behaviour every users/tasks repository pair
// must share. Each store package runs it against its own backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/tasks"
	"github.com/user/taskmanager-go/users"
)

// Repos is one backend under test. DeleteUser removes a user row directly;
// the application never deletes users, but the schema must cascade when
// an operator does.
type Repos struct {
	Users      users.Repository
	Tasks      tasks.Repository
	DeleteUser func(ctx context.Context, id string) error
}

// Factory returns fresh, empty repositories for one subtest.
type Factory func(t *testing.T) Repos

// base is a fixed instant with whole-second precision, so round trips
// compare equal on every backend.
var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Run exercises the repository contract.
func Run(t *testing.T, newRepos Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newRepos) })
	t.Run("tasks CRUD", func(t *testing.T) { testTaskCRUD(t, newRepos) })
	t.Run("tasks list", func(t *testing.T) { testTaskList(t, newRepos) })
	t.Run("tasks ownership", func(t *testing.T) { testOwnership(t, newRepos) })
	t.Run("tasks same timestamp", func(t *testing.T) { testSameTimestamp(t, newRepos) })
	t.Run("user delete cascades", func(t *testing.T) { testCascade(t, newRepos) })
}

func newUser(t *testing.T, repo users.Repository, email string) *users.User {
	t.Helper()
	u := &users.User{
		ID:           uuid.NewString(),
		Name:         "Ann",
		Email:        email,
		PasswordHash: "$2a$04$hash",
		CreatedAt:    base,
		UpdatedAt:    base,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func newTask(t *testing.T, repo tasks.Repository, owner string, title string, at time.Time, status tasks.Status, prio tasks.Priority) *tasks.Task {
	t.Helper()
	task := &tasks.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "",
		Status:      status,
		Priority:    prio,
		UserID:      owner,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func testUsers(t *testing.T, newRepos Factory) {
	r := newRepos(t)
	userRepo := r.Users
	ctx := context.Background()

	u := newUser(t, userRepo, "ann@example.com")

	byEmail, err := userRepo.GetByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, u.PasswordHash, byEmail.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(byEmail.CreatedAt))

	byID, err := userRepo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", byID.Email)

	_, err = userRepo.GetByEmail(ctx, "nobody@example.com")
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	_, err = userRepo.GetByID(ctx, uuid.NewString())
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	dup := &users.User{ID: uuid.NewString(), Name: "Other", Email: "ann@example.com", PasswordHash: "x", CreatedAt: base, UpdatedAt: base}
	err = userRepo.Create(ctx, dup)
	assert.True(t, apperror.IsConflictError(err), "got %v", err)
}

func testTaskCRUD(t *testing.T, newRepos Factory) {
	r := newRepos(t)
	userRepo, taskRepo := r.Users, r.Tasks
	ctx := context.Background()
	owner := newUser(t, userRepo, "crud@example.com")

	created := newTask(t, taskRepo, owner.ID, "Write report", base, tasks.StatusTodo, tasks.PriorityMedium)

	got, err := taskRepo.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
	assert.Equal(t, tasks.StatusTodo, got.Status)
	assert.Equal(t, owner.ID, got.UserID)
	assert.True(t, base.Equal(got.CreatedAt))

	done := tasks.StatusDone
	later := base.Add(time.Hour)
	updated, err := taskRepo.Update(ctx, owner.ID, created.ID, tasks.Patch{Status: &done}, later)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusDone, updated.Status)
	assert.Equal(t, "Write report", updated.Title)
	assert.Equal(t, tasks.PriorityMedium, updated.Priority)
	assert.True(t, later.Equal(updated.UpdatedAt))
	assert.True(t, base.Equal(updated.CreatedAt))

	title, desc, high := "Write final report", "with charts", tasks.PriorityHigh
	updated, err = taskRepo.Update(ctx, owner.ID, created.ID, tasks.Patch{Title: &title, Description: &desc, Priority: &high}, later)
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, desc, updated.Description)
	assert.Equal(t, tasks.PriorityHigh, updated.Priority)
	assert.Equal(t, tasks.StatusDone, updated.Status)

	require.NoError(t, taskRepo.Delete(ctx, owner.ID, created.ID))
	err = taskRepo.Delete(ctx, owner.ID, created.ID)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	_, err = taskRepo.Get(ctx, owner.ID, created.ID)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	_, err = taskRepo.Update(ctx, owner.ID, created.ID, tasks.Patch{Status: &done}, later)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func testTaskList(t *testing.T, newRepos Factory) {
	r := newRepos(t)
	userRepo, taskRepo := r.Users, r.Tasks
	ctx := context.Background()
	owner := newUser(t, userRepo, "list@example.com")

	specs := []struct {
		status tasks.Status
		prio   tasks.Priority
	}{
		{tasks.StatusTodo, tasks.PriorityLow},
		{tasks.StatusDone, tasks.PriorityHigh},
		{tasks.StatusTodo, tasks.PriorityHigh},
		{tasks.StatusInProgress, tasks.PriorityMedium},
		{tasks.StatusTodo, tasks.PriorityMedium},
	}
	ids := make([]string, len(specs))
	for i, s := range specs {
		ids[i] = newTask(t, taskRepo, owner.ID, "task", base.Add(time.Duration(i)*time.Minute), s.status, s.prio).ID
	}

	all, err := taskRepo.List(ctx, owner.ID, tasks.ListFilter{Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, task := range all {
		assert.Equal(t, ids[len(ids)-1-i], task.ID, "newest first")
	}

	page, err := taskRepo.List(ctx, owner.ID, tasks.ListFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID)
	assert.Equal(t, ids[1], page[1].ID)

	todo, err := taskRepo.List(ctx, owner.ID, tasks.ListFilter{Status: tasks.StatusTodo, Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	assert.Len(t, todo, 3)

	todoHigh, err := taskRepo.List(ctx, owner.ID, tasks.ListFilter{Status: tasks.StatusTodo, Priority: tasks.PriorityHigh, Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	require.Len(t, todoHigh, 1)
	assert.Equal(t, ids[2], todoHigh[0].ID)

	beyond, err := taskRepo.List(ctx, owner.ID, tasks.ListFilter{Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)

	counts, err := taskRepo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[tasks.StatusTodo])
	assert.Equal(t, 1, counts[tasks.StatusInProgress])
	assert.Equal(t, 1, counts[tasks.StatusDone])
}

func testOwnership(t *testing.T, newRepos Factory) {
	r := newRepos(t)
	userRepo, taskRepo := r.Users, r.Tasks
	ctx := context.Background()
	alice := newUser(t, userRepo, "alice@example.com")
	bob := newUser(t, userRepo, "bob@example.com")

	task := newTask(t, taskRepo, alice.ID, "Alice only", base, tasks.StatusTodo, tasks.PriorityLow)

	_, err := taskRepo.Get(ctx, bob.ID, task.ID)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	done := tasks.StatusDone
	_, err = taskRepo.Update(ctx, bob.ID, task.ID, tasks.Patch{Status: &done}, base)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	err = taskRepo.Delete(ctx, bob.ID, task.ID)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)

	bobs, err := taskRepo.List(ctx, bob.ID, tasks.ListFilter{Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	assert.Empty(t, bobs)

	still, err := taskRepo.Get(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, tasks.StatusTodo, still.Status)

	orphan := &tasks.Task{ID: uuid.NewString(), Title: "x", Status: tasks.StatusTodo, Priority: tasks.PriorityLow, UserID: uuid.NewString(), CreatedAt: base, UpdatedAt: base}
	err = taskRepo.Create(ctx, orphan)
	assert.Equal(t, apperror.InvalidReferenceError, apperror.TypeOf(err), "got %v", err)
}

func testSameTimestamp(t *testing.T, newRepos Factory) {
	r := newRepos(t)
	ctx := context.Background()
	owner := newUser(t, r.Users, "ties@example.com")

	ids := make([]string, 4)
	for i := range ids {
		ids[i] = newTask(t, r.Tasks, owner.ID, "same second", base, tasks.StatusTodo, tasks.PriorityLow).ID
	}

	list, err := r.Tasks.List(ctx, owner.ID, tasks.ListFilter{Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	require.Len(t, list, len(ids))
	for i, task := range list {
		assert.Equal(t, ids[len(ids)-1-i], task.ID, "equal timestamps list in reverse insertion order")
	}
}

func testCascade(t *testing.T, newRepos Factory) {
	r := newRepos(t)
	ctx := context.Background()
	gone := newUser(t, r.Users, "gone@example.com")
	kept := newUser(t, r.Users, "kept@example.com")

	for i := 0; i < 3; i++ {
		newTask(t, r.Tasks, gone.ID, "doomed", base.Add(time.Duration(i)*time.Second), tasks.StatusTodo, tasks.PriorityLow)
	}
	survivor := newTask(t, r.Tasks, kept.ID, "survivor", base, tasks.StatusDone, tasks.PriorityHigh)

	require.NoError(t, r.DeleteUser(ctx, gone.ID))

	left, err := r.Tasks.List(ctx, gone.ID, tasks.ListFilter{Limit: tasks.DefaultLimit})
	require.NoError(t, err)
	assert.Empty(t, left)

	counts, err := r.Tasks.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts[tasks.StatusTodo])
	assert.Equal(t, 1, counts[tasks.StatusDone])

	_, err = r.Tasks.Get(ctx, kept.ID, survivor.ID)
	assert.NoError(t, err)
}
