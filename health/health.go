// Package health serves the liveness and diagnostics endpoints mounted at
// /api/health: an overall report, a database-only report and, outside
// production, a dump of runtime details.
package health

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/user/taskmanager-go/apperror"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/response"
)

const checkTimeout = 5 * time.Second

// Database is what the checks need from the store (implemented by *db.Handle).
type Database interface {
	Ping(ctx context.Context) error
	Stats() db.PoolStats
	CountTables(ctx context.Context) (db.TableCounts, error)
}

// DatabaseHealth is the result of probing the database.
type DatabaseHealth struct {
	Healthy        bool            `json:"healthy"`
	ResponseTimeMs int64           `json:"responseTimeMs"`
	ConnectionPool *db.PoolStats   `json:"connectionPool,omitempty"`
	Tables         *db.TableCounts `json:"tables,omitempty"`
	Error          string          `json:"error,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// APIHealth reports on the HTTP layer itself; answering at all means healthy.
type APIHealth struct {
	Healthy bool `json:"healthy"`
}

// Memory is heap usage in MiB, rounded to two decimals.
type Memory struct {
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
}

// Report is the body of GET /api/health.
type Report struct {
	Status      string    `json:"status" example:"healthy"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version" example:"1.0.0"`
	Environment string    `json:"environment" example:"development"`
	Services    struct {
		Database DatabaseHealth `json:"database"`
		API      APIHealth      `json:"api"`
	} `json:"services"`
	Uptime float64 `json:"uptime"`
	Memory Memory  `json:"memory"`
}

// Handlers serves the health endpoints.
type Handlers struct {
	db          Database
	version     string
	environment string
	production  bool
	started     time.Time
	now         func() time.Time
}

// NewHandlers creates Handlers. production hides the system endpoint.
func NewHandlers(database Database, version, environment string, production bool) *Handlers {
	return &Handlers{
		db:          database,
		version:     version,
		environment: environment,
		production:  production,
		started:     time.Now(),
		now:         time.Now,
	}
}

// RegisterRoutes mounts the endpoints (under /api/health).
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Get("/", h.health)
	r.Get("/db", h.database)
	r.Get("/system", h.system)
}

// CheckDatabase pings the database, then counts the rows of both tables to
// prove they are reachable.
func (h *Handlers) CheckDatabase(ctx context.Context) DatabaseHealth {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := h.now()
	result := DatabaseHealth{}

	err := h.db.Ping(ctx)
	var counts db.TableCounts
	if err == nil {
		counts, err = h.db.CountTables(ctx)
	}
	result.ResponseTimeMs = h.now().Sub(start).Milliseconds()
	result.Timestamp = h.now().UTC()

	if err != nil {
		result.Error = "database check failed"
		if appErr, ok := apperror.FromError(err); ok {
			result.Error = appErr.Message
		}
		return result
	}

	stats := h.db.Stats()
	result.Healthy = true
	result.ConnectionPool = &stats
	result.Tables = &counts
	return result
}

// health godoc
// @Summary Service health
// @Description Overall status including a database probe. Answers 503 when the database is unhealthy.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope{data=health.Report}
// @Failure 503 {object} response.Envelope{data=health.Report}
// @Router /health [get]
func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	report := Report{
		Timestamp:   h.now().UTC(),
		Version:     h.version,
		Environment: h.environment,
		Uptime:      h.now().Sub(h.started).Seconds(),
		Memory:      heapMemory(),
	}
	report.Services.Database = h.CheckDatabase(r.Context())
	report.Services.API = APIHealth{Healthy: true}

	status := http.StatusOK
	report.Status = "healthy"
	if !report.Services.Database.Healthy {
		status = http.StatusServiceUnavailable
		report.Status = "unhealthy"
	}
	response.JSON(w, status, response.Envelope{Success: status == http.StatusOK, Data: report})
}

// database godoc
// @Summary Database health
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope{data=health.DatabaseHealth}
// @Failure 503 {object} response.Envelope{data=health.DatabaseHealth}
// @Router /health/db [get]
func (h *Handlers) database(w http.ResponseWriter, r *http.Request) {
	result := h.CheckDatabase(r.Context())
	status := http.StatusOK
	if !result.Healthy {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, response.Envelope{Success: result.Healthy, Data: result})
}

// SystemInfo is the body of GET /api/health/system.
type SystemInfo struct {
	Go struct {
		Version    string `json:"version"`
		OS         string `json:"os"`
		Arch       string `json:"arch"`
		NumCPU     int    `json:"numCpu"`
		Goroutines int    `json:"goroutines"`
	} `json:"go"`
	Environment string    `json:"environment"`
	Uptime      float64   `json:"uptime"`
	Memory      MemStats  `json:"memory"`
	PID         int       `json:"pid"`
	Timestamp   time.Time `json:"timestamp"`
}

// MemStats is a subset of runtime.MemStats, in bytes.
type MemStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	HeapSys    uint64 `json:"heapSys"`
	NumGC      uint32 `json:"numGc"`
}

// system godoc
// @Summary Runtime details
// @Description Not available in production.
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope{data=health.SystemInfo}
// @Failure 403 {object} response.ErrorResponse "System info not available in production"
// @Router /health/system [get]
func (h *Handlers) system(w http.ResponseWriter, r *http.Request) {
	if h.production {
		response.Error(w, r, apperror.NewForbiddenError("System info not available in production", nil))
		return
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	var info SystemInfo
	info.Go.Version = runtime.Version()
	info.Go.OS = runtime.GOOS
	info.Go.Arch = runtime.GOARCH
	info.Go.NumCPU = runtime.NumCPU()
	info.Go.Goroutines = runtime.NumGoroutine()
	info.Environment = h.environment
	info.Uptime = h.now().Sub(h.started).Seconds()
	info.Memory = MemStats{
		Alloc:      ms.Alloc,
		TotalAlloc: ms.TotalAlloc,
		Sys:        ms.Sys,
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		NumGC:      ms.NumGC,
	}
	info.PID = os.Getpid()
	info.Timestamp = h.now().UTC()

	response.Success(w, http.StatusOK, info, "")
}

func heapMemory() Memory {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return Memory{Used: mib(ms.HeapAlloc), Total: mib(ms.HeapSys)}
}

func mib(b uint64) float64 {
	return float64(b*100/(1<<20)) / 100
}
