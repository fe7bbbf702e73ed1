package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/freshbasket/internal/config"
	"github.com/joao-fontenele/freshbasket/internal/gateway"
	"github.com/joao-fontenele/freshbasket/internal/server"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

const serviceName = "gateway"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	if err := run(logger); err != nil {
		logger.Error("gateway failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config.Gateway
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

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	handler := gateway.NewHandler(
		gateway.NewServiceProxy(cfg.OrdersURL, httpClient),
		gateway.NewServiceProxy(cfg.CatalogURL, httpClient),
		logger,
	)

	mux := http.NewServeMux()
	handler.Register(mux, telemetry.WithHTTPRoute)

	return server.Run(ctx, server.New(cfg.Port, serviceName, mux, nil), logger)
}
