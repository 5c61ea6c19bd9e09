// This is the main entry point of the task manager.
// It's responsible for loading configuration, opening the database, wiring
// services and handlers (controllers), starting the HTTP server and handling
// graceful shutdown. Maintenance commands (migrations, demo seed) live here too.
//
// Analogy to Nest.js: This file is similar to `main.ts` in a Nest.js application,
// where the application instance is created and bootstrapped to listen for requests.
// @title Task Manager API
// @version 1.0
// @description Task management REST API: registration and login with bearer tokens, and per-user task CRUD.
// @contact.name API Support
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// `urfave/cli` turns the binary into a small command suite (serve, migrate, seed).
	"github.com/urfave/cli/v2"

	"github.com/user/taskmanager-go/config"
	"github.com/user/taskmanager-go/db"
)

func main() {
	app := &cli.App{
		Name:  "taskmanager",
		Usage: "task manager REST API",
		// Running the binary without a command starts the server.
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Flags:  serveFlags(),
				Action: serveAction,
			},
			{
				Name:      "migrate",
				Usage:     "apply or roll back schema migrations",
				ArgsUsage: "up|down",
				Action:    migrateAction,
			},
			{
				Name:   "seed",
				Usage:  "insert the demo user and tasks if they are missing",
				Action: seedAction,
			},
		},
		Flags: serveFlags(),
	}

	// The root context ends on SIGINT/SIGTERM; `serve` treats that as the
	// signal to shut down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		slog.Error("taskmanager exited with error", "error", err)
		stop()
		os.Exit(1)
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "memory",
			Usage: "use a throwaway in-memory SQLite database seeded with demo data",
		},
	}
}

func serveAction(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	return serve(c.Context, cfg, logger, c.Bool("memory"))
}

func migrateAction(c *cli.Context) error {
	dir, err := db.ParseDirection(c.Args().First())
	if err != nil {
		return err
	}
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	h, err := db.Open(c.Context, cfg.DB)
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.Migrate(dir); err != nil {
		return err
	}
	logger.Info("migrations finished", "driver", h.Driver, "direction", c.Args().First())
	return nil
}

func seedAction(c *cli.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}

	h, err := db.Open(c.Context, cfg.DB)
	if err != nil {
		return err
	}
	defer h.Close()

	if cfg.DB.AutoMigrate {
		if err := h.Migrate(db.Up); err != nil {
			return err
		}
	}
	st, err := newStore(h)
	if err != nil {
		return err
	}
	created, err := db.Seed(c.Context, st.users, st.tasks, cfg.Auth.BcryptCost, logger)
	if err != nil {
		return err
	}
	if !created {
		logger.Info("demo data already present, nothing to seed")
	}
	return nil
}

// bootstrap loads configuration and installs the process-wide logger.
func bootstrap() (*config.AppConfig, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg)
	return cfg, logger, nil
}
