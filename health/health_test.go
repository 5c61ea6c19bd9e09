package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/health"
)

type downDB struct{}

func (downDB) Ping(context.Context) error {
	return apperror.NewServiceUnavailableError("database unavailable", errors.New("dial tcp: connection refused"))
}
func (downDB) Stats() db.PoolStats { return db.PoolStats{} }
func (downDB) CountTables(context.Context) (db.TableCounts, error) {
	return db.TableCounts{}, errors.New("unreachable")
}

func serve(t *testing.T, d health.Database, production bool, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	health.NewHandlers(d, "1.0.0", "test", production).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func memoryDB(t *testing.T) *db.Handle {
	t.Helper()
	h, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return h
}

func TestHealth_Healthy(t *testing.T) {
	rec := serve(t, memoryDB(t), false, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool          `json:"success"`
		Data    health.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "healthy", body.Data.Status)
	assert.Equal(t, "1.0.0", body.Data.Version)
	assert.Equal(t, "test", body.Data.Environment)
	assert.True(t, body.Data.Services.Database.Healthy)
	require.NotNil(t, body.Data.Services.Database.Tables)
	assert.Equal(t, int64(0), body.Data.Services.Database.Tables.Tasks)
	require.NotNil(t, body.Data.Services.Database.ConnectionPool)
	assert.Equal(t, 1, body.Data.Services.Database.ConnectionPool.Max)
	assert.True(t, body.Data.Services.API.Healthy)
	assert.Greater(t, body.Data.Memory.Total, 0.0)
}

func TestHealth_DatabaseDown(t *testing.T) {
	rec := serve(t, downDB{}, false, "/")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"unhealthy"`)
	assert.Contains(t, rec.Body.String(), `"error":"database unavailable"`)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	rec = serve(t, downDB{}, false, "/db")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHealth_DB(t *testing.T) {
	rec := serve(t, memoryDB(t), false, "/db")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy":true`)
	assert.Contains(t, rec.Body.String(), `"tables":{"users":0,"tasks":0}`)
}

func TestHealth_System(t *testing.T) {
	rec := serve(t, downDB{}, false, "/system")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"goroutines"`)

	rec = serve(t, downDB{}, true, "/system")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"FORBIDDEN"`)
}
