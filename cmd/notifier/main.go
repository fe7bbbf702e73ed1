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
	"github.com/joao-fontenele/freshbasket/internal/messaging"
	"github.com/joao-fontenele/freshbasket/internal/notify"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

const serviceName = "notifier"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	if err := run(logger); err != nil {
		logger.Error("notifier failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config.Notifier
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
	handler := notify.NewHandler(cfg.MailerURL, httpClient, logger)

	consumer := messaging.NewConsumer(cfg.KafkaBrokers, messaging.TopicOrderStatusChanged, cfg.GroupID, logger)
	defer func() { _ = consumer.Close() }()

	logger.Info("starting notifier", "brokers", cfg.KafkaBrokers)
	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		return err
	}
	logger.Info("consumer stopped")
	return nil
}
