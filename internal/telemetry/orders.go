package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OrderMetrics holds the orders service instruments. Gauges report the last
// snapshot handed to Observe. A nil *OrderMetrics records nothing.
type OrderMetrics struct {
	transitions metric.Int64Counter
	checkouts   metric.Int64Counter

	mu           sync.Mutex
	byStatus     map[string]int64
	activeRiders int64
	grossRevenue int64
}

func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	m := &OrderMetrics{byStatus: make(map[string]int64)}

	var err error
	m.transitions, err = meter.Int64Counter("freshbasket.order.transitions",
		metric.WithDescription("Status change requests by outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.checkouts, err = meter.Int64Counter("freshbasket.order.checkouts",
		metric.WithDescription("Orders placed"),
	)
	if err != nil {
		return nil, err
	}

	orders, err := meter.Int64ObservableGauge("freshbasket.orders",
		metric.WithDescription("Orders in the latest snapshot by status"),
	)
	if err != nil {
		return nil, err
	}

	riders, err := meter.Int64ObservableGauge("freshbasket.riders.active",
		metric.WithDescription("Riders with an order picked up or in transit"),
	)
	if err != nil {
		return nil, err
	}

	revenue, err := meter.Int64ObservableGauge("freshbasket.revenue.gross",
		metric.WithDescription("Sum of order grand totals across all statuses"),
		metric.WithUnit("{KES}"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		for status, n := range m.byStatus {
			o.ObserveInt64(orders, n, metric.WithAttributes(attribute.String("status", status)))
		}
		o.ObserveInt64(riders, m.activeRiders)
		o.ObserveInt64(revenue, m.grossRevenue)
		return nil
	}, orders, riders, revenue)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordTransition counts one status change request. outcome is "ok" or a
// short error class such as "forbidden".
func (m *OrderMetrics) RecordTransition(ctx context.Context, from, to, outcome string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("outcome", outcome),
	))
}

func (m *OrderMetrics) RecordCheckout(ctx context.Context) {
	if m == nil {
		return
	}
	m.checkouts.Add(ctx, 1)
}

// Observe replaces the snapshot the gauges report.
func (m *OrderMetrics) Observe(byStatus map[string]int64, activeRiders, grossRevenue int64) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byStatus = make(map[string]int64, len(byStatus))
	for k, v := range byStatus {
		m.byStatus[k] = v
	}
	m.activeRiders = activeRiders
	m.grossRevenue = grossRevenue
}
