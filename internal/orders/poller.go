package orders

import (
	"context"
	"log/slog"
	"time"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/stats"
	"github.com/joao-fontenele/freshbasket/internal/telemetry"
)

// SnapshotFunc receives every successfully fetched order snapshot.
type SnapshotFunc func(ctx context.Context, orders []domain.Order)

// Poller re-reads the full order set on a fixed interval.
type Poller struct {
	store       Store
	interval    time.Duration
	logger      *slog.Logger
	subscribers []SnapshotFunc
}

func NewPoller(store Store, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{store: store, interval: interval, logger: logger}
}

// Subscribe registers fn. Call before Run.
func (p *Poller) Subscribe(fn SnapshotFunc) {
	p.subscribers = append(p.subscribers, fn)
}

// Run polls once straight away and then every interval until ctx is done.
// A failed poll is logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	orders, err := p.store.FetchAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("failed to poll orders", "error", err)
		}
		return
	}
	for _, fn := range p.subscribers {
		fn(ctx, orders)
	}
}

// ObserveMetrics feeds each snapshot into the order gauges.
func ObserveMetrics(m *telemetry.OrderMetrics) SnapshotFunc {
	return func(_ context.Context, orders []domain.Order) {
		counts := stats.CountByStatus(orders)
		byStatus := make(map[string]int64, len(domain.OrderStatuses))
		for _, status := range domain.OrderStatuses {
			byStatus[string(status)] = int64(counts[status])
		}
		m.Observe(byStatus, int64(stats.ActiveRiderCount(orders)), stats.GrossRevenue(orders))
	}
}
