package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/identity"
)

var (
	vendor1 = domain.Identity{ID: "V1", Email: "v1@example.com", Role: domain.RoleVendor}
	vendor2 = domain.Identity{ID: "V2", Email: "v2@example.com", Role: domain.RoleVendor}
	admin   = domain.Identity{ID: "A1", Email: "admin@example.com", Role: domain.RoleAdmin}
	shopper = domain.Identity{ID: "C1", Email: "c1@example.com", Role: domain.RoleCustomer}
)

func newTestServer(t *testing.T, store Store) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(mux, nil)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string, actor *domain.Identity) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		identity.Set(req.Header, *actor)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func seed(t *testing.T, store Store, vendorID, name string) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: 120, Stock: 10, Category: "vegetables", VendorID: vendorID}
	if err := store.Create(context.Background(), &p); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

func TestHandler_List(t *testing.T) {
	store := NewMemoryStore()
	seed(t, store, "V1", "Tomatoes")
	seed(t, store, "V2", "Avocado")
	srv := newTestServer(t, store)

	t.Run("all products without identity", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/products", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		var products []domain.Product
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(products) != 2 || products[0].Name != "Avocado" {
			t.Errorf("expected 2 products sorted by name, got %+v", products)
		}
	})

	t.Run("scoped to vendor", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/products?vendorId=V1", "", nil)
		var products []domain.Product
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(products) != 1 || products[0].VendorID != "V1" {
			t.Errorf("expected only V1 products, got %+v", products)
		}
	})

	t.Run("count", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/products/count", "", nil)
		var body countResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if body.Count != 2 {
			t.Errorf("expected count 2, got %d", body.Count)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/products/missing", "", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", resp.StatusCode)
		}
	})
}

func TestHandler_ListFilters(t *testing.T) {
	store := NewMemoryStore()
	for _, p := range []domain.Product{
		{Name: "Baby Spinach", Price: 120, Category: "Vegetables", Subcategory: "Salads", VendorID: "V1"},
		{Name: "Sweet corn", Price: 60, Category: "Vegetables", Subcategory: "Salads", VendorID: "V2"},
		{Name: "Carrots (Whole)", Price: 80, Category: "Vegetables", Subcategory: "Precut & Whole", VendorID: "V1"},
		{Name: "Spinach Wraps", Price: 300, Category: "Bakery", Subcategory: "Breads", VendorID: "V1"},
	} {
		if err := store.Create(context.Background(), &p); err != nil {
			t.Fatalf("failed to seed product: %v", err)
		}
	}
	srv := newTestServer(t, store)

	list := func(t *testing.T, path string) []string {
		t.Helper()
		resp := do(t, srv, http.MethodGet, path, "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		var products []domain.Product
		if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		names := make([]string, 0, len(products))
		for _, p := range products {
			names = append(names, p.Name)
		}
		return names
	}

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"category ignores case", "/products?category=vegetables", []string{"Baby Spinach", "Carrots (Whole)", "Sweet corn"}},
		{"subcategory", "/products?category=Vegetables&subcategory=salads", []string{"Baby Spinach", "Sweet corn"}},
		{"all means unfiltered", "/products?category=All&subcategory=All", []string{"Baby Spinach", "Carrots (Whole)", "Spinach Wraps", "Sweet corn"}},
		{"name search ignores case", "/products?q=SPINACH", []string{"Baby Spinach", "Spinach Wraps"}},
		{"search within category", "/products?q=spinach&category=Bakery", []string{"Spinach Wraps"}},
		{"combined with vendor", "/products?vendorId=V2&category=Vegetables", []string{"Sweet corn"}},
		{"no match", "/products?q=mango", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := list(t, tt.path)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHandler_Categories(t *testing.T) {
	store := NewMemoryStore()
	for _, p := range []domain.Product{
		{Name: "Baby Spinach", Price: 120, Category: "Vegetables", Subcategory: "Salads", VendorID: "V1"},
		{Name: "Sweet corn", Price: 60, Category: "Vegetables", Subcategory: "Salads", VendorID: "V2"},
		{Name: "Carrots (Whole)", Price: 80, Category: "Vegetables", Subcategory: "Precut & Whole", VendorID: "V1"},
		{Name: "Milk", Price: 60, Category: "Dairy", VendorID: "V2"},
		{Name: "Mystery box", Price: 500, VendorID: "V1"},
	} {
		if err := store.Create(context.Background(), &p); err != nil {
			t.Fatalf("failed to seed product: %v", err)
		}
	}
	srv := newTestServer(t, store)

	t.Run("all vendors", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/products/categories", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		var got []Category
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		want := []Category{
			{Name: "Dairy", Subcategories: []string{}},
			{Name: "Vegetables", Subcategories: []string{"Precut & Whole", "Salads"}},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %+v, got %+v", want, got)
		}
	})

	t.Run("one vendor", func(t *testing.T) {
		resp := do(t, srv, http.MethodGet, "/products/categories?vendorId=V2", "", nil)
		var got []Category
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(got) != 2 || got[1].Name != "Vegetables" || !slices.Equal(got[1].Subcategories, []string{"Salads"}) {
			t.Errorf("expected V2 categories only, got %+v", got)
		}
	})
}

func TestHandler_Create(t *testing.T) {
	srv := newTestServer(t, NewMemoryStore())
	body := `{"name":"Sukuma wiki","price":150,"stock":40,"category":"vegetables","vendorId":"someone-else"}`

	t.Run("vendor owns created product", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/products", body, &vendor1)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected status 201, got %d", resp.StatusCode)
		}
		var p domain.Product
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if p.ID == "" {
			t.Error("expected id to be assigned")
		}
		if p.VendorID != "V1" {
			t.Errorf("expected vendor V1, got %s", p.VendorID)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"missing name", `{"price":150,"stock":1}`},
			{"zero price", `{"name":"x","price":0,"stock":1}`},
			{"negative stock", `{"name":"x","price":10,"stock":-1}`},
			{"malformed", `{"name":`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := do(t, srv, http.MethodPost, "/products", tt.body, &vendor1)
				if resp.StatusCode != http.StatusBadRequest {
					t.Errorf("expected status 400, got %d", resp.StatusCode)
				}
			})
		}
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/products", body, &shopper)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", resp.StatusCode)
		}
	})

	t.Run("requires identity", func(t *testing.T) {
		resp := do(t, srv, http.MethodPost, "/products", body, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", resp.StatusCode)
		}
	})
}

func TestHandler_Modify(t *testing.T) {
	store := NewMemoryStore()
	srv := newTestServer(t, store)
	p := seed(t, store, "V1", "Tomatoes")

	t.Run("owner patches price", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, "/products/"+p.ID, `{"price":180}`, &vendor1)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		got, _ := store.Get(context.Background(), p.ID)
		if got.Price != 180 || got.Name != "Tomatoes" {
			t.Errorf("expected merged patch, got %+v", got)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("expected updatedAt to be set")
		}
	})

	t.Run("other vendor is forbidden", func(t *testing.T) {
		resp := do(t, srv, http.MethodPatch, "/products/"+p.ID, `{"price":1}`, &vendor2)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected status 403, got %d", resp.StatusCode)
		}
	})

	t.Run("admin sets stock", func(t *testing.T) {
		resp := do(t, srv, http.MethodPut, "/products/"+p.ID+"/stock", `{"stock":3}`, &admin)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		got, _ := store.Get(context.Background(), p.ID)
		if got.Stock != 3 {
			t.Errorf("expected stock 3, got %d", got.Stock)
		}
	})

	t.Run("negative stock rejected", func(t *testing.T) {
		resp := do(t, srv, http.MethodPut, "/products/"+p.ID+"/stock", `{"stock":-2}`, &vendor1)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("missing stock rejected", func(t *testing.T) {
		resp := do(t, srv, http.MethodPut, "/products/"+p.ID+"/stock", `{}`, &vendor1)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", resp.StatusCode)
		}
	})

	t.Run("owner deletes", func(t *testing.T) {
		resp := do(t, srv, http.MethodDelete, "/products/"+p.ID, "", &vendor1)
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", resp.StatusCode)
		}
		if _, err := store.Get(context.Background(), p.ID); err == nil {
			t.Error("expected product to be gone")
		}
	})
}

type downStore struct{ Store }

func (downStore) List(context.Context, Query) ([]domain.Product, error) {
	return nil, domain.ErrStoreUnavailable
}

func TestHandler_StoreUnavailable(t *testing.T) {
	srv := newTestServer(t, downStore{})

	resp := do(t, srv, http.MethodGet, "/products", "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", resp.StatusCode)
	}
}
