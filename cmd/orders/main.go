package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/joao-fontenele/freshbasket/internal/catalog"
	"github.com/joao-fontenele/freshbasket/internal/config"
	"github.com/joao-fontenele/freshbasket/internal/messaging"
	"github.com/joao-fontenele/freshbasket/internal/orders"
	"github.com/joao-fontenele/freshbasket/internal/server"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

const serviceName = "orders"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	if err := run(logger); err != nil {
		logger.Error("orders service failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var cfg config.Orders
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
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

	metrics, err := telemetry.NewOrderMetrics(otel.Meter(serviceName))
	if err != nil {
		return err
	}

	var store orders.Store
	if cfg.PostgresURL != "" {
		db, err := telemetry.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		store = orders.NewRepository(db)
	} else {
		logger.Warn("POSTGRES_URL not set, keeping orders in memory")
		store = orders.NewMemoryStore()
	}

	opts := []orders.Option{
		orders.WithMetrics(metrics),
		orders.WithDeliveryFee(cfg.DeliveryFee),
	}
	if len(cfg.KafkaBrokers) > 0 {
		created := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderCreated)
		defer func() { _ = created.Close() }()
		changed := messaging.NewProducer(cfg.KafkaBrokers, messaging.TopicOrderStatusChanged)
		defer func() { _ = changed.Close() }()
		opts = append(opts, orders.WithPublishers(created, changed))
	}
	if cfg.CatalogURL != "" {
		opts = append(opts, orders.WithProductCounter(catalog.NewClient(cfg.CatalogURL, nil)))
	}

	svc := orders.NewService(store, logger, opts...)

	poller := orders.NewPoller(store, cfg.PollInterval, logger)
	poller.Subscribe(orders.ObserveMetrics(metrics))

	mux := http.NewServeMux()
	orders.NewHandler(svc, logger).Register(mux, telemetry.WithHTTPRoute)
	srv := server.New(cfg.Port, serviceName, mux, metricsHandler)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx, srv, logger) })
	g.Go(func() error { return poller.Run(ctx) })
	return g.Wait()
}
