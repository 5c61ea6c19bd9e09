// Package server assembles the HTTP surface: the chi router, the global
// middleware chain and the route tree. Think of it as the part of a Nest.js
// `main.ts` that calls `app.use(...)` and mounts the modules.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/taskmanager-go/auth"
	"github.com/user/taskmanager-go/config"
	_ "github.com/user/taskmanager-go/docs" // registers the OpenAPI document
	"github.com/user/taskmanager-go/health"
	"github.com/user/taskmanager-go/metrics"
	"github.com/user/taskmanager-go/response"
	"github.com/user/taskmanager-go/tasks"
	"github.com/user/taskmanager-go/telemetry"
)

// Deps are the feature handlers and shared services the router mounts.
type Deps struct {
	Config  *config.AppConfig
	Logger  *slog.Logger
	Tokens  auth.Verifier
	Auth    *auth.Handlers
	Tasks   *tasks.Handlers
	Health  *health.Handlers
	Metrics *metrics.Metrics
}

// NewRouter builds the application's http.Handler.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Not-found and method handlers must be set before sub-routers are
	// mounted so that they inherit them.
	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(securityHeaders(cfg.IsProduction()))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(rateLimit(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow))
	r.Use(middleware.Compress(5))
	r.Use(maxBytes(cfg.Server.MaxBodyBytes))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(telemetry.Middleware)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.With(auth.Optional(d.Tokens)).Get("/", banner(cfg))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(api chi.Router) {
		api.Route("/health", d.Health.RegisterRoutes)
		api.Route("/auth", d.Auth.RegisterRoutes)
		api.Route("/tasks", func(tr chi.Router) {
			tr.Use(auth.Require(d.Tokens))
			d.Tasks.RegisterRoutes(tr)
		})
	})

	return r
}

// Banner is the body of GET /.
type Banner struct {
	Version     string         `json:"version" example:"1.0.0"`
	Environment string         `json:"environment" example:"development"`
	Timestamp   time.Time      `json:"timestamp"`
	User        *auth.Identity `json:"user,omitempty"`
}

// banner names the service. With a valid bearer token the caller's identity
// is echoed back.
func banner(cfg *config.AppConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := Banner{
			Version:     cfg.Version,
			Environment: cfg.Env,
			Timestamp:   time.Now().UTC(),
		}
		if id, ok := auth.IdentityFrom(r.Context()); ok {
			b.User = &id
		}
		response.Success(w, http.StatusOK, b, "Task Manager API")
	}
}

// New wraps handler in an http.Server configured from cfg. The write timeout
// leaves room for the per-request timeout to answer first.
func New(cfg *config.AppConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
