// Package metrics exposes the service's Prometheus metrics: HTTP request
// latency and counts, active database connections, tasks per status and the
// outcome of task mutations. Everything is registered on a private registry
// that carries the label app="taskmanager"; the Go runtime and process
// collectors are added with the `taskmanager_` prefix.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/taskmanager-go/tasks"
)

// unmatchedRoute labels requests that no route matched, keeping raw paths out
// of the label set.
const unmatchedRoute = "unmatched"

var durationBuckets = []float64{0.1, 0.3, 0.5, 0.7, 1, 3, 5, 7, 10}

// Metrics owns the registry and every collector on it.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	dbConnections   prometheus.Gauge
	tasksTotal      *prometheus.GaugeVec
	taskOperations  *prometheus.CounterVec
}

// New creates the registry and registers all collectors on it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	labelled := prometheus.WrapRegistererWith(prometheus.Labels{"app": "taskmanager"}, reg)

	prometheus.WrapRegistererWithPrefix("taskmanager_", labelled).MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: durationBuckets,
		}, []string{"method", "route", "status"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		dbConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),
		tasksTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tasks_total",
			Help: "Total number of tasks",
		}, []string{"status"}),
		taskOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskmanager_task_operations_total",
			Help: "Total number of task operations",
		}, []string{"operation", "status"}),
	}

	labelled.MustRegister(m.requestDuration, m.requestsTotal, m.dbConnections, m.tasksTotal, m.taskOperations)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records the duration and count of every request, labelled by
// method, chi route pattern and status code. It must sit inside the chi
// router so that the pattern is known once the handler returns.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  routePattern(r),
			"status": strconv.Itoa(status),
		}
		m.requestDuration.With(labels).Observe(time.Since(start).Seconds())
		m.requestsTotal.With(labels).Inc()
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}

// RecordTaskOperation implements tasks.OperationRecorder.
func (m *Metrics) RecordTaskOperation(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.taskOperations.WithLabelValues(operation, status).Inc()
}

// SetDBConnections sets the number of connections currently in use.
func (m *Metrics) SetDBConnections(active int) {
	m.dbConnections.Set(float64(active))
}

// SetTaskCounts replaces the per-status task gauges. Statuses missing from
// counts are reported as zero.
func (m *Metrics) SetTaskCounts(counts map[tasks.Status]int) {
	m.tasksTotal.Reset()
	for _, s := range tasks.Statuses {
		m.tasksTotal.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
