// Package background contains work that runs outside the request/response
// cycle. In Nest.js this would be a provider driven by `@nestjs/schedule`.
//
// The only job today is the metrics refresher: it periodically copies the
// connection pool usage and the per-status task counts into the Prometheus
// gauges. It is best effort. A failed refresh is logged and the previous
// values stay in place; requests never wait on it.
package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/tasks"
)

const (
	// defaultRefreshInterval applies when the configured interval is not positive.
	defaultRefreshInterval = 15 * time.Second
	// refreshTimeout bounds a single refresh so a slow database cannot pile up ticks.
	refreshTimeout = 5 * time.Second
)

// PoolStatter reports connection pool usage (implemented by *db.Handle).
type PoolStatter interface {
	Stats() db.PoolStats
}

// StatusCounter counts tasks per status (implemented by the task stores).
type StatusCounter interface {
	CountByStatus(ctx context.Context) (map[tasks.Status]int, error)
}

// MetricsSink receives refreshed values (implemented by *metrics.Metrics).
type MetricsSink interface {
	SetDBConnections(active int)
	SetTaskCounts(counts map[tasks.Status]int)
}

// MetricsRefresher wires the sources to the sink.
type MetricsRefresher struct {
	Pool     PoolStatter
	Tasks    StatusCounter
	Sink     MetricsSink
	Interval time.Duration
	Logger   *slog.Logger
}

// Refresh performs one refresh. Errors are logged and swallowed.
func (r MetricsRefresher) Refresh(ctx context.Context) {
	r.Sink.SetDBConnections(r.Pool.Stats().InUse)

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()
	counts, err := r.Tasks.CountByStatus(ctx)
	if err != nil {
		r.logger().Warn("failed to refresh task metrics", "error", err)
		return
	}
	r.Sink.SetTaskCounts(counts)
}

func (r MetricsRefresher) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// StartMetricsRefresher refreshes once immediately and then on every tick
// until stopChan is closed. The returned channel is closed once the loop has
// exited, so callers can wait for it during shutdown.
func StartMetricsRefresher(r MetricsRefresher, stopChan <-chan struct{}) <-chan struct{} {
	interval := r.Interval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer r.logger().Info("metrics refresher stopped")

		// Refreshes inherit a context that ends with the loop, so a refresh in
		// flight during shutdown is cancelled rather than awaited in full.
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-stopChan:
				cancel()
			case <-ctx.Done():
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		r.logger().Info("metrics refresher started", "interval", interval)
		r.Refresh(ctx)
		for {
			select {
			case <-ticker.C:
				r.Refresh(ctx)
			case <-stopChan:
				return
			}
		}
	}()

	return done
}
