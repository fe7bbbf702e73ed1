// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Telemetry is shared by every service that exports traces.
type Telemetry struct {
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
}

type Orders struct {
	Port         string        `envconfig:"PORT" default:"8081"`
	PostgresURL  string        `envconfig:"POSTGRES_URL"`
	KafkaBrokers []string      `envconfig:"KAFKA_BROKERS"`
	CatalogURL   string        `envconfig:"CATALOG_SERVICE_URL"`
	DeliveryFee  int64         `envconfig:"DELIVERY_FEE" default:"200"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"30s"`
	Telemetry
}

type Catalog struct {
	Port        string `envconfig:"PORT" default:"8082"`
	PostgresURL string `envconfig:"POSTGRES_URL"`
	Telemetry
}

type Gateway struct {
	Port       string `envconfig:"PORT" default:"8080"`
	OrdersURL  string `envconfig:"ORDERS_SERVICE_URL" required:"true"`
	CatalogURL string `envconfig:"CATALOG_SERVICE_URL" required:"true"`
	Telemetry
}

type Notifier struct {
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" required:"true"`
	MailerURL    string   `envconfig:"MAILER_SERVICE_URL" required:"true"`
	GroupID      string   `envconfig:"CONSUMER_GROUP" default:"notifier"`
	Telemetry
}

type Mailer struct {
	Port string `envconfig:"PORT" default:"8083"`
	Telemetry
}

type Migrate struct {
	PostgresURL    string `envconfig:"POSTGRES_URL" required:"true"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"file://migrations"`
}

// Load fills cfg from the environment. Field tags carry the variable names, so
// no prefix is applied.
func Load(cfg any) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return nil
}

// Validate checks settings envconfig cannot express as tags.
func (o Orders) Validate() error {
	// Stored orders use a zero fee to mean "not recorded", so zero is refused.
	if o.DeliveryFee <= 0 {
		return fmt.Errorf("DELIVERY_FEE must be positive, got %d", o.DeliveryFee)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", o.PollInterval)
	}
	return nil
}
