package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/config"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/health"
	"github.com/user/taskmanager-go/metrics"
	"github.com/user/taskmanager-go/server"
	"github.com/user/taskmanager-go/store/sqlite"
	"github.com/user/taskmanager-go/tasks"
	"github.com/user/taskmanager-go/validation"
)

func newApp(t *testing.T, vars map[string]string) http.Handler {
	t.Helper()
	env := map[string]string{
		"APP_ENV":    "test",
		"DB_DRIVER":  "sqlite",
		"JWT_SECRET": "server-test-secret-server-test-secret",
	}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.LoadFrom(env)
	require.NoError(t, err)

	h, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	store := sqlite.New(h.SQL)

	m := metrics.New()
	v := validation.New()
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	authSvc, err := auth.NewService(store.Users, tokens, v, bcrypt.MinCost)
	require.NoError(t, err)
	taskSvc := tasks.NewService(store.Tasks, v, tasks.WithRecorder(m))

	return server.NewRouter(server.Deps{
		Config:  cfg,
		Tokens:  tokens,
		Auth:    auth.NewHandlers(authSvc, tokens),
		Tasks:   tasks.NewHandlers(taskSvc),
		Health:  health.NewHandlers(h, cfg.Version, cfg.Env, cfg.IsProduction()),
		Metrics: m,
	})
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)

	var env map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func data(env map[string]any) map[string]any {
	d, _ := env["data"].(map[string]any)
	return d
}

func TestScenario(t *testing.T) {
	app := newApp(t, nil)
	alice := &client{t: t, h: app}
	bob := &client{t: t, h: app}

	rec, env := alice.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Alice", "email": "Alice@Example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	alice.token = data(env)["token"].(string)
	assert.Equal(t, "alice@example.com", data(env)["user"].(map[string]any)["email"])

	rec, _ = bob.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Bob", "email": "alice@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = bob.do(http.MethodPost, "/api/auth/register", map[string]string{"name": "Bob", "email": "bob@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	bob.token = data(env)["token"].(string)

	rec, env = alice.do(http.MethodGet, "/api/auth/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", data(env)["name"])

	var ids []string
	for _, title := range []string{"one", "two", "three", "four", "five"} {
		rec, env = alice.do(http.MethodPost, "/api/tasks", map[string]string{"title": title})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, data(env)["id"].(string))
	}

	rec, env = alice.do(http.MethodGet, "/api/tasks?limit=2&offset=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := env["data"].([]any)
	require.Len(t, page, 2)
	assert.Equal(t, "three", page[0].(map[string]any)["title"])
	assert.Equal(t, "two", page[1].(map[string]any)["title"])

	rec, _ = bob.do(http.MethodGet, "/api/tasks/"+ids[0], nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = bob.do(http.MethodPut, "/api/tasks/"+ids[0], map[string]string{"status": "done"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = bob.do(http.MethodDelete, "/api/tasks/"+ids[0], nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = alice.do(http.MethodPut, "/api/tasks/"+ids[0], map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", data(env)["status"])
	assert.Equal(t, "one", data(env)["title"])

	rec, _ = alice.do(http.MethodDelete, "/api/tasks/"+ids[0], nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = alice.do(http.MethodGet, "/api/tasks/"+ids[0], nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = bob.do(http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env["data"])

	anon := &client{t: t, h: app}
	rec, env = anon.do(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Access token required", env["message"])

	rec, env = alice.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Task Manager API", env["message"])
	assert.NotNil(t, data(env)["user"])

	rec, env = anon.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, data(env)["user"])

	rec, _ = anon.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `taskmanager_task_operations_total{app="taskmanager",operation="create",status="success"} 5`)
	assert.Contains(t, rec.Body.String(), `route="/api/tasks/{id}"`)
}

func TestRoutingErrors(t *testing.T) {
	app := newApp(t, nil)
	c := &client{t: t, h: app}

	rec, env := c.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "route /api/nope not found", env["message"])
	assert.Equal(t, "NOT_FOUND", env["error"])

	rec, env = c.do(http.MethodPatch, "/api/auth/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, false, env["success"])
}

func TestHealthEndpoint(t *testing.T) {
	c := &client{t: t, h: newApp(t, nil)}

	rec, env := c.do(http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", data(env)["status"])

	rec, _ = c.do(http.MethodGet, "/api/health/system", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityHeadersAndCORS(t *testing.T) {
	app := newApp(t, map[string]string{"FRONTEND_URL": "http://app.example"})

	rec, _ := (&client{t: t, h: app}).do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre := httptest.NewRecorder()
	app.ServeHTTP(pre, req)
	assert.Equal(t, "http://app.example", pre.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", pre.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	pre = httptest.NewRecorder()
	app.ServeHTTP(pre, req)
	assert.Empty(t, pre.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	app := newApp(t, map[string]string{"RATE_LIMIT_REQUESTS": "2", "RATE_LIMIT_WINDOW": "1m"})
	c := &client{t: t, h: app}

	for i := 0; i < 2; i++ {
		rec, _ := c.do(http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", env["error"])
}

func TestBodyLimit(t *testing.T) {
	app := newApp(t, map[string]string{"MAX_BODY_BYTES": "64"})
	c := &client{t: t, h: app}

	rec, env := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": strings.Repeat("n", 80), "email": "a@b.co", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body too large", env["message"])
	assert.Equal(t, "BAD_REQUEST", env["error"])
}
