package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

func sampleOrder(createdAt time.Time) *domain.Order {
	return &domain.Order{
		CustomerID:    "C1",
		CustomerEmail: "c1@example.com",
		CustomerPhone: "0712000111",
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Sukuma wiki", Price: 150, Quantity: 2, VendorID: "V1", VendorEmail: "v1@example.com"},
			{ProductID: "p2", Name: "Fresh milk", Price: 60, Quantity: 1, VendorID: "V2"},
		},
		Total:       360,
		DeliveryFee: 200,
		GrandTotal:  560,
		Status:      domain.OrderStatusPending,
		DeliveryAddress: domain.DeliveryAddress{
			AddressLine1: "Moi Avenue 12",
			City:         "Nairobi",
			PhoneNumber:  "0712000111",
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func ptr[T any](v T) *T { return &v }

// testStoreContract runs the behaviour every Store must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("insert assigns id and round trips", func(t *testing.T) {
		store := newStore(t)
		order := sampleOrder(base)

		require.NoError(t, store.Insert(ctx, order))
		require.NotEmpty(t, order.ID)

		got, err := store.FetchByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)
		assert.Equal(t, order.Items, got.Items)
		assert.Equal(t, order.DeliveryAddress, got.DeliveryAddress)
		assert.Equal(t, int64(560), got.GrandTotal)
		assert.True(t, order.CreatedAt.Equal(got.CreatedAt))
		assert.Empty(t, got.RiderID)
		assert.True(t, got.MadeAvailableAt.IsZero())
	})

	t.Run("fetch unknown id", func(t *testing.T) {
		store := newStore(t)

		_, err := store.FetchByID(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("fetch all newest first", func(t *testing.T) {
		store := newStore(t)
		older := sampleOrder(base)
		newer := sampleOrder(base.Add(time.Hour))
		require.NoError(t, store.Insert(ctx, older))
		require.NoError(t, store.Insert(ctx, newer))

		all, err := store.FetchAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, newer.ID, all[0].ID)
		assert.Equal(t, older.ID, all[1].ID)
		assert.Len(t, all[1].Items, 2)
	})

	t.Run("conditional update applies when guard holds", func(t *testing.T) {
		store := newStore(t)
		order := sampleOrder(base)
		require.NoError(t, store.Insert(ctx, order))

		at := base.Add(time.Minute)
		err := store.Update(ctx, order.ID, domain.OrderPatch{
			Status:    ptr(domain.OrderStatusConfirmed),
			UpdatedAt: &at,
			If:        domain.Condition{Status: domain.OrderStatusPending},
		})
		require.NoError(t, err)

		got, err := store.FetchByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusConfirmed, got.Status)
		assert.True(t, at.Equal(got.UpdatedAt))
		assert.Equal(t, order.CustomerEmail, got.CustomerEmail)
	})

	t.Run("stale status is rejected without writing", func(t *testing.T) {
		store := newStore(t)
		order := sampleOrder(base)
		order.Status = domain.OrderStatusCancelled
		require.NoError(t, store.Insert(ctx, order))

		err := store.Update(ctx, order.ID, domain.OrderPatch{
			Status: ptr(domain.OrderStatusConfirmed),
			If:     domain.Condition{Status: domain.OrderStatusPending},
		})
		assert.ErrorIs(t, err, domain.ErrStaleOrder)

		got, err := store.FetchByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, got.Status)
	})

	t.Run("second claim is rejected", func(t *testing.T) {
		store := newStore(t)
		order := sampleOrder(base)
		order.Status = domain.OrderStatusReady
		require.NoError(t, store.Insert(ctx, order))

		claim := func(rider string) error {
			return store.Update(ctx, order.ID, domain.OrderPatch{
				Status:     ptr(domain.OrderStatusPickedUp),
				RiderID:    ptr(rider),
				RiderEmail: ptr(rider + "@example.com"),
				If:         domain.Condition{Status: domain.OrderStatusReady, Unclaimed: true},
			})
		}

		require.NoError(t, claim("R1"))
		assert.ErrorIs(t, claim("R2"), domain.ErrAlreadyClaimed)

		got, err := store.FetchByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "R1", got.RiderID)
		assert.Equal(t, "R1@example.com", got.RiderEmail)
	})

	t.Run("concurrent claims bind exactly one rider", func(t *testing.T) {
		store := newStore(t)
		order := sampleOrder(base)
		order.Status = domain.OrderStatusReady
		require.NoError(t, store.Insert(ctx, order))

		riders := []string{"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8"}
		errs := make([]error, len(riders))
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i, rider := range riders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				errs[i] = store.Update(ctx, order.ID, domain.OrderPatch{
					Status:  ptr(domain.OrderStatusPickedUp),
					RiderID: ptr(rider),
					If:      domain.Condition{Status: domain.OrderStatusReady, Unclaimed: true},
				})
			}()
		}
		close(start)
		wg.Wait()

		var winners int
		for _, err := range errs {
			if err == nil {
				winners++
				continue
			}
			assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("update unknown id", func(t *testing.T) {
		store := newStore(t)

		err := store.Update(ctx, "does-not-exist", domain.OrderPatch{Status: ptr(domain.OrderStatusConfirmed)})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		order := sampleOrder(base)
		require.NoError(t, store.Insert(ctx, order))

		require.NoError(t, store.Delete(ctx, order.ID))
		_, err := store.FetchByID(ctx, order.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, store.Delete(ctx, order.ID), domain.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	order := sampleOrder(time.Now())
	require.NoError(t, store.Insert(ctx, order))

	order.Items[0].Quantity = 99
	got, err := store.FetchByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	got.Items[0].Name = "changed"
	all, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sukuma wiki", all[0].Items[0].Name)
}
