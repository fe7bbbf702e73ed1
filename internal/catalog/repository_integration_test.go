//go:build integration

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/joao-fontenele/freshbasket/internal/domain"
	"github.com/joao-fontenele/freshbasket/internal/testutil"
)

func TestRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := testutil.Postgres(ctx, t)
	repo := NewRepository(db)

	p := domain.Product{Name: "Mangoes", Price: 40, Stock: 12, Category: "fruit", VendorID: "V1", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, &p); err != nil {
		t.Fatalf("create: %v", err)
	}
	other := domain.Product{Name: "Bread", Price: 65, Stock: 3, VendorID: "V2", CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, &other); err != nil {
		t.Fatalf("create: %v", err)
	}

	scoped, err := repo.List(ctx, Query{VendorID: "V1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != p.ID {
		t.Fatalf("expected only %s, got %+v", p.ID, scoped)
	}

	filtered, err := repo.List(ctx, Query{Category: "FRUIT", Search: "mango"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != p.ID {
		t.Fatalf("expected only %s for fruit/mango, got %+v", p.ID, filtered)
	}
	none, err := repo.List(ctx, Query{Search: "mango", Subcategory: "dried"})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no dried mangoes, got %+v", none)
	}

	p.Stock = 0
	p.UpdatedAt = time.Now().UTC()
	if err := repo.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stock != 0 || got.UpdatedAt.IsZero() {
		t.Errorf("expected saved stock 0 with updatedAt, got %+v", got)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("expected count 2, got %d (%v)", n, err)
	}

	if err := repo.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, p.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Save(ctx, p); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on save, got %v", err)
	}
}
