package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/freshbasket/internal/catalog"
	"github.com/joao-fontenele/freshbasket/internal/config"
	"github.com/joao-fontenele/freshbasket/internal/server"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

const serviceName = "catalog"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	if err := run(logger); err != nil {
		logger.Error("catalog service failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config.Catalog
	if err := config.Load(&cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	var store catalog.Store
	if cfg.PostgresURL != "" {
		db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		store = catalog.NewRepository(db)
	} else {
		logger.Warn("POSTGRES_URL not set, keeping products in memory")
		store = catalog.NewMemoryStore()
	}

	mux := http.NewServeMux()
	catalog.NewHandler(store, logger).Register(mux, telemetry.WithHTTPRoute)

	return server.Run(ctx, server.New(cfg.Port, serviceName, mux, metricsHandler), logger)
}
