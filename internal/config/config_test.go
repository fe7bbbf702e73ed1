package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv clears keys for the duration of the test. envconfig treats a key
// set to "" as present, which would skip defaults.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

func TestLoad_OrdersDefaults(t *testing.T) {
	unsetenv(t, "PORT", "POSTGRES_URL", "KAFKA_BROKERS", "CATALOG_SERVICE_URL",
		"DELIVERY_FEE", "POLL_INTERVAL", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var cfg Orders
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "8081", cfg.Port)
	assert.Empty(t, cfg.PostgresURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, int64(200), cfg.DeliveryFee)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OrdersFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("POSTGRES_URL", "postgres://localhost/freshbasket")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DELIVERY_FEE", "250")
	t.Setenv("POLL_INTERVAL", "5s")
	unsetenv(t, "CATALOG_SERVICE_URL", "OTEL_EXPORTER_OTLP_ENDPOINT")

	var cfg Orders
	require.NoError(t, Load(&cfg))

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, int64(250), cfg.DeliveryFee)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
}

func TestLoad_GatewayRequiresUpstreams(t *testing.T) {
	unsetenv(t, "ORDERS_SERVICE_URL", "CATALOG_SERVICE_URL", "PORT")

	var cfg Gateway
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORDERS_SERVICE_URL")
}

func TestLoad_InvalidDuration(t *testing.T) {
	unsetenv(t, "PORT", "DELIVERY_FEE", "KAFKA_BROKERS")
	t.Setenv("POLL_INTERVAL", "often")

	var cfg Orders
	assert.Error(t, Load(&cfg))
}

func TestOrdersValidate(t *testing.T) {
	assert.Error(t, Orders{DeliveryFee: -1, PollInterval: time.Second}.Validate())
	assert.Error(t, Orders{DeliveryFee: 200}.Validate())
	assert.Error(t, Orders{DeliveryFee: 0, PollInterval: time.Second}.Validate())
	assert.NoError(t, Orders{DeliveryFee: 1, PollInterval: time.Second}.Validate())
}

func TestLoad_ZeroDeliveryFeeRejected(t *testing.T) {
	unsetenv(t, "PORT", "KAFKA_BROKERS")
	t.Setenv("DELIVERY_FEE", "0")
	t.Setenv("POLL_INTERVAL", "2s")

	var cfg Orders
	require.NoError(t, Load(&cfg))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DELIVERY_FEE")
}
