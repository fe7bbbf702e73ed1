package orders

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/stats"
)

// Store persists orders. Update applies a patch only when the stored order
// still satisfies patch.If; otherwise it returns ErrNotFound,
// ErrAlreadyClaimed or ErrStaleOrder and changes nothing.
type Store interface {
	FetchAll(ctx context.Context) ([]domain.Order, error)
	FetchByID(ctx context.Context, id string) (*domain.Order, error)
	Insert(ctx context.Context, order *domain.Order) error
	Update(ctx context.Context, id string, patch domain.OrderPatch) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps orders in process. Used in tests and when no database is
// configured.
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]domain.Order)}
}

func (m *MemoryStore) FetchAll(_ context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o.Clone())
	}
	return stats.NewestFirst(out), nil
}

func (m *MemoryStore) FetchByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := o.Clone()
	return &c, nil
}

func (m *MemoryStore) Insert(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order.ID = uuid.New().String()
	m.orders[order.ID] = order.Clone()
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, patch domain.OrderPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if err := checkCondition(current, patch.If); err != nil {
		return err
	}
	m.orders[id] = patch.Apply(current)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

// checkCondition reports why current no longer satisfies cond. A rider bound
// since the caller's read wins over a plain status mismatch so the losing
// claimant learns the order was taken.
func checkCondition(current domain.Order, cond domain.Condition) error {
	if cond.Unclaimed && current.RiderID != "" {
		return domain.ErrAlreadyClaimed
	}
	if cond.Status != "" && current.Status != cond.Status {
		return domain.ErrStaleOrder
	}
	return nil
}
