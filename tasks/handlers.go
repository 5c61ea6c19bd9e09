// This file, `handlers.go`, holds the HTTP handlers for tasks.
// It acts as a "Controller" in MVC terms, or a Nest.js Controller: it decodes
// the request, reads the caller's identity, delegates to the Service and
// writes the envelope.
package tasks

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/response"
)

// Handlers handles HTTP requests for tasks.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes registers the task routes on router. The caller mounts it
// at /api/tasks behind auth.Require.
func (h *Handlers) RegisterRoutes(router chi.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/{id}", h.get)
	router.Put("/{id}", h.update)
	router.Delete("/{id}", h.delete)
}

// owner returns the caller's user id. The auth gate guarantees it exists on
// these routes; a missing identity means the router was wired without it.
func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		response.Error(w, r, apperror.NewUnauthorizedError("Access token required", nil))
		return "", false
	}
	return id.UserID, true
}

// list godoc
// @Summary List tasks
// @Description Lists the caller's tasks, newest first.
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (todo, in-progress, done)"
// @Param priority query string false "Filter by priority (low, medium, high)"
// @Param limit query int false "Page size, capped at 1000" default(100)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {object} response.Envelope{data=[]tasks.Task}
// @Failure 401 {object} response.ErrorResponse "Missing, expired or invalid token"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /tasks [get]
func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	params := ListParams{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Limit:    intParam(q.Get("limit")),
		Offset:   intParam(q.Get("offset")),
	}

	list, err := h.service.List(r.Context(), ownerID, params)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, list, "")
}

// intParam parses an optional integer query value. Anything unparsable is
// treated as absent so the default applies.
func intParam(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return &n
}

// get godoc
// @Summary Get task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope{data=tasks.Task}
// @Failure 401 {object} response.ErrorResponse "Missing, expired or invalid token"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /tasks/{id} [get]
func (h *Handlers) get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), ownerID, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, task, "")
}

// create godoc
// @Summary Create task
// @Description Creates a task owned by the caller. New tasks start as "todo".
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskBody body tasks.CreateTaskRequest true "Task to create"
// @Success 201 {object} response.Envelope{data=tasks.Task} "Task created successfully"
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 401 {object} response.ErrorResponse "Missing, expired or invalid token"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /tasks [post]
func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}

	task, err := h.service.Create(r.Context(), ownerID, req)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusCreated, task, "Task created successfully")
}

// update godoc
// @Summary Update task
// @Description Applies a partial update. At least one of title, description, status or priority is required.
// @Tags Tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param patch body tasks.Patch true "Fields to change"
// @Success 200 {object} response.Envelope{data=tasks.Task} "Task updated successfully"
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 401 {object} response.ErrorResponse "Missing, expired or invalid token"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /tasks/{id} [put]
func (h *Handlers) update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	var patch Patch
	if err := response.DecodeJSON(r, &patch); err != nil {
		response.Error(w, r, err)
		return
	}

	task, err := h.service.Update(r.Context(), ownerID, chi.URLParam(r, "id"), patch)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, task, "Task updated successfully")
}

// delete godoc
// @Summary Delete task
// @Tags Tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope "Task deleted successfully"
// @Failure 401 {object} response.ErrorResponse "Missing, expired or invalid token"
// @Failure 404 {object} response.ErrorResponse "Task not found"
// @Failure 500 {object} response.ErrorResponse "Internal Server Error"
// @Router /tasks/{id} [delete]
func (h *Handlers) delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := owner(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), ownerID, chi.URLParam(r, "id")); err != nil {
		response.Error(w, r, err)
		return
	}
	response.Success(w, http.StatusOK, nil, "Task deleted successfully")
}
