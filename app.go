package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/background"
	"github.com/user/taskmanager-go/config"
	"github.com/user/taskmanager-go/db"
	"github.com/user/taskmanager-go/health"
	"github.com/user/taskmanager-go/logging"
	"github.com/user/taskmanager-go/metrics"
	"github.com/user/taskmanager-go/response"
	"github.com/user/taskmanager-go/server"
	"github.com/user/taskmanager-go/store/postgres"
	"github.com/user/taskmanager-go/store/sqlite"
	"github.com/user/taskmanager-go/tasks"
	"github.com/user/taskmanager-go/telemetry"
	"github.com/user/taskmanager-go/users"
	"github.com/user/taskmanager-go/validation"
)

const serviceName = "taskmanager"

func newLogger(cfg *config.AppConfig) *slog.Logger {
	logger := logging.New(os.Stdout, logging.Options{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
	slog.SetDefault(logger)
	response.SetDefault(&response.Writer{Development: cfg.IsDevelopment(), Logger: logger})
	return logger
}

// stores bundles the repositories of whichever driver is active.
type stores struct {
	users users.Repository
	tasks tasks.Repository
}

func newStore(h *db.Handle) (stores, error) {
	switch {
	case h.SQL != nil:
		st := sqlite.New(h.SQL)
		return stores{users: st.Users, tasks: st.Tasks}, nil
	case h.Pool != nil:
		st := postgres.New(h.Pool)
		return stores{users: st.Users, tasks: st.Tasks}, nil
	default:
		return stores{}, errors.New("database handle has no open connection")
	}
}

func openDatabase(ctx context.Context, cfg *config.AppConfig, memory bool) (*db.Handle, error) {
	if memory {
		return db.OpenMemory(ctx)
	}
	h, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := h.Migrate(db.Up); err != nil {
			h.Close()
			return nil, err
		}
	}
	return h, nil
}

// serve runs the HTTP server until ctx ends, then drains in-flight requests
// within the configured shutdown timeout.
func serve(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger, memory bool) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Observability, serviceName, cfg.Version)
	if err != nil {
		return err
	}

	h, err := openDatabase(ctx, cfg, memory)
	if err != nil {
		return err
	}
	defer h.Close()
	logger.Info("database ready", "driver", h.Driver, "memory", memory)

	st, err := newStore(h)
	if err != nil {
		return err
	}
	if memory || cfg.DB.SeedDemo {
		if _, err := db.Seed(ctx, st.users, st.tasks, cfg.Auth.BcryptCost, logger); err != nil {
			return err
		}
	}

	// Services encapsulate business logic; handlers (controllers) translate HTTP.
	// This is manual dependency injection, common in Go. Nest.js uses a DI container.
	m := metrics.New()
	v := validation.New()
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	authService, err := auth.NewService(st.users, tokens, v, cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	taskService := tasks.NewService(st.tasks, v, tasks.WithRecorder(m))

	router := server.NewRouter(server.Deps{
		Config:  cfg,
		Logger:  logger,
		Tokens:  tokens,
		Auth:    auth.NewHandlers(authService, tokens),
		Tasks:   tasks.NewHandlers(taskService),
		Health:  health.NewHandlers(h, cfg.Version, cfg.Env, cfg.IsProduction()),
		Metrics: m,
	})
	srv := server.New(cfg, router)

	// `refresherStop` is closed during shutdown; `refresherDone` closes once
	// the refresher goroutine has exited.
	refresherStop := make(chan struct{})
	refresherDone := background.StartMetricsRefresher(background.MetricsRefresher{
		Pool:     h,
		Tasks:    st.tasks,
		Sink:     m,
		Interval: cfg.Observability.MetricsRefreshInterval,
		Logger:   logger,
	}, refresherStop)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "version", cfg.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		close(refresherStop)
		<-refresherDone
		_ = shutdownTracing(context.Background())
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	close(refresherStop)
	select {
	case <-refresherDone:
	case <-shutdownCtx.Done():
		logger.Warn("metrics refresher did not stop before the shutdown deadline")
	}

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("server stopped gracefully", "uptime", time.Since(startedAt).Round(time.Second))
	return nil
}

var startedAt = time.Now()
