package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/urfave/cli/v2"

	"github.com/joao-fontenele/freshbasket/internal/config"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	app := &cli.App{
		Name:  "migrate",
		Usage: "apply FreshBasket database migrations (POSTGRES_URL, MIGRATIONS_PATH)",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(*cli.Context) error {
					return withMigrator(func(m *migrate.Migrate) error {
						err := m.Up()
						if errors.Is(err, migrate.ErrNoChange) {
							logger.Info("no pending migrations")
							return nil
						}
						if err != nil {
							return fmt.Errorf("migration up failed: %w", err)
						}
						logger.Info("migrations applied successfully")
						return nil
					})
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(c *cli.Context) error {
					steps := c.Int("steps")
					if steps < 1 {
						return fmt.Errorf("steps must be positive, got %d", steps)
					}
					return withMigrator(func(m *migrate.Migrate) error {
						err := m.Steps(-steps)
						if errors.Is(err, migrate.ErrNoChange) {
							logger.Info("no migrations to roll back")
							return nil
						}
						if err != nil {
							return fmt.Errorf("migration down failed: %w", err)
						}
						logger.Info("migrations rolled back successfully", slog.Int("steps", steps))
						return nil
					})
				},
			},
			{
				Name:  "version",
				Usage: "print the applied migration version",
				Action: func(*cli.Context) error {
					return withMigrator(func(m *migrate.Migrate) error {
						version, dirty, err := m.Version()
						if errors.Is(err, migrate.ErrNilVersion) {
							logger.Info("no migrations applied yet")
							return nil
						}
						if err != nil {
							return fmt.Errorf("failed to get version: %w", err)
						}
						logger.Info("current migration version", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
						return nil
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func withMigrator(fn func(m *migrate.Migrate) error) error {
	var cfg config.Migrate
	if err := config.Load(&cfg); err != nil {
		return err
	}

	m, err := migrate.New(cfg.MigrationsPath, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	return fn(m)
}
