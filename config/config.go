// Package config provides configuration management for the task manager.
// Values come from environment variables (optionally seeded from a `.env`
// file in development) and are parsed into typed structs with caarlos0/env.
// After parsing, Validate collects every problem it finds and reports them
// together, so a misconfigured deployment fails fast with the full list.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Environments recognized by APP_ENV.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// minProductionSecretLen is the shortest JWT secret accepted in production (HS256 key size).
const minProductionSecretLen = 32

// DatabaseConfig holds connection settings for the backing store.
type DatabaseConfig struct {
	Driver         string        `env:"DB_DRIVER" envDefault:"postgres"`
	Host           string        `env:"DB_HOST" envDefault:"localhost"`
	Port           int           `env:"DB_PORT" envDefault:"5432"`
	Name           string        `env:"DB_NAME" envDefault:"taskmanager"`
	User           string        `env:"DB_USER" envDefault:"admin"`
	Password       string        `env:"DB_PASSWORD" envDefault:"password"`
	SSLMode        string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns       int           `env:"DB_MAX_CONNS" envDefault:"20"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"taskmanager.db"`
	AutoMigrate    bool          `env:"AUTO_MIGRATE" envDefault:"true"`
	SeedDemo       bool          `env:"SEED_DEMO" envDefault:"false"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret  string        `env:"JWT_SECRET,required"`
	TokenTTL   time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"taskmanager"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              string        `env:"PORT" envDefault:"5000"`
	AllowedOrigins    []string      `env:"FRONTEND_URL" envDefault:"http://localhost:3000" envSeparator:","`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"100"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"15m"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" envDefault:"10485760"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// ObservabilityConfig covers logs, metrics and traces.
type ObservabilityConfig struct {
	LogLevel               string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat              string        `env:"LOG_FORMAT"`
	MetricsRefreshInterval time.Duration `env:"METRICS_REFRESH_INTERVAL" envDefault:"15s"`
	OTelEnabled            bool          `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint           string        `env:"OTEL_ENDPOINT"`
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Env           string `env:"APP_ENV" envDefault:"development"`
	Version       string `env:"APP_VERSION" envDefault:"1.0.0"`
	DB            DatabaseConfig
	Auth          AuthConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// Load reads an optional `.env` file, then parses and validates the process environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables only. It ignores the
// process environment and is meant for tests and tooling.
func LoadFrom(vars map[string]string) (*AppConfig, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Observability.LogFormat == "" {
		cfg.Observability.LogFormat = "text"
		if cfg.IsProduction() {
			cfg.Observability.LogFormat = "json"
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints and clamps the pool size. All
// problems are reported in a single error.
func (c *AppConfig) Validate() error {
	var problems []string

	switch c.Env {
	case EnvDevelopment, EnvProduction, EnvTest:
	default:
		problems = append(problems, fmt.Sprintf("invalid APP_ENV %q: expected development, production or test", c.Env))
	}

	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("invalid DB_DRIVER %q: expected postgres or sqlite", c.DB.Driver))
	}

	// Clamp the pool size between 1 and 100
	if c.DB.MaxConns < 1 {
		c.DB.MaxConns = 1
	}
	if c.DB.MaxConns > 100 {
		c.DB.MaxConns = 100
	}

	if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretLen {
		problems = append(problems, fmt.Sprintf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen))
	}
	if c.Auth.TokenTTL <= 0 {
		problems = append(problems, "JWT_EXPIRES_IN must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST %d out of range 4-31", c.Auth.BcryptCost))
	}

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid PORT %q: expected integer", c.Server.Port))
	}
	if c.Server.RateLimitRequests < 1 || c.Server.RateLimitWindow <= 0 {
		problems = append(problems, "RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Server.RequestTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, "REQUEST_TIMEOUT and SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "MAX_BODY_BYTES must be positive")
	}
	if c.Observability.MetricsRefreshInterval <= 0 {
		problems = append(problems, "METRICS_REFRESH_INTERVAL must be positive")
	}
	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		problems = append(problems, "OTEL_ENDPOINT is required when OTEL_ENABLED=true")
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *AppConfig) IsProduction() bool { return c.Env == EnvProduction }

// IsDevelopment reports whether APP_ENV is development.
func (c *AppConfig) IsDevelopment() bool { return c.Env == EnvDevelopment }

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string { return ":" + c.Server.Port }

// PostgresDSN builds a postgres:// URL. The password is escaped so that
// special characters survive.
func (c DatabaseConfig) PostgresDSN() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		secs := int(c.ConnectTimeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}
