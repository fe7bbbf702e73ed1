package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joao-fontenele/freshbasket/internal/config"
	"github.com/joao-fontenele/freshbasket/internal/mailer"
	"github.com/joao-fontenele/freshbasket/internal/server"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

const serviceName = "mailer"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	if err := run(logger); err != nil {
		logger.Error("mailer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config.Mailer
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

	handler, err := mailer.NewHandler(logger)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /send", telemetry.WithHTTPRoute(handler.HandleSend))

	return server.Run(ctx, server.New(cfg.Port, serviceName, mux, metricsHandler), logger)
}
