//go:build integration

package orders

import (
	"context"
	"testing"
	"time"

	"github.com/joao-fontenele/freshbasket/internal/testutil"
)

func TestRepository(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := testutil.Postgres(ctx, t)
	repo := NewRepository(db)

	testStoreContract(t, func(t *testing.T) Store {
		testutil.Truncate(t, db, "orders.orders")
		return repo
	})
}
