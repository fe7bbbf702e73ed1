package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

// Query narrows a product listing. Empty fields match everything. Category
// and Subcategory match case-insensitively and Search is a case-insensitive
// substring of the product name.
type Query struct {
	VendorID    string
	Category    string
	Subcategory string
	Search      string
}

// Matches reports whether p passes every filter in q.
func (q Query) Matches(p domain.Product) bool {
	switch {
	case q.VendorID != "" && p.VendorID != q.VendorID:
		return false
	case q.Category != "" && !strings.EqualFold(p.Category, q.Category):
		return false
	case q.Subcategory != "" && !strings.EqualFold(p.Subcategory, q.Subcategory):
		return false
	case q.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)):
		return false
	}
	return true
}

// Store persists products. List returns products matching q sorted by name.
type Store interface {
	List(ctx context.Context, q Query) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Save(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]domain.Product)}
}

func (m *MemoryStore) List(_ context.Context, q Query) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		if q.Matches(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) Create(_ context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	product.ID = uuid.New().String()
	m.products[product.ID] = *product
	return nil
}

func (m *MemoryStore) Save(_ context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.ID]; !ok {
		return domain.ErrNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products), nil
}
