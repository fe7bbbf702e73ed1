package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

const orderColumns = `id, customer_id, customer_email, customer_phone, total, delivery_fee, grand_total,
	status, address_line1, address_line2, city, postal_code, phone_number,
	rider_id, rider_email, created_at, updated_at, made_available_at`

// Repository stores orders in the orders schema of Postgres.
type Repository struct {
	db *sql.DB
}

var _ Store = (*Repository)(nil)

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}

func (r *Repository) Insert(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.New().String()
	a := order.DeliveryAddress

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders.orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`, id, order.CustomerID, order.CustomerEmail, order.CustomerPhone,
		order.Total, order.DeliveryFee, order.GrandTotal, order.Status,
		a.AddressLine1, a.AddressLine2, a.City, a.PostalCode, a.PhoneNumber,
		nullString(order.RiderID), nullString(order.RiderEmail),
		order.CreatedAt, nullTime(order.UpdatedAt), nullTime(order.MadeAvailableAt))
	if err != nil {
		return unavailable(err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders.order_items
				(id, order_id, position, product_id, name, price, quantity, vendor_id, vendor_email, vendor_business_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, uuid.New().String(), id, i, item.ProductID, item.Name, item.Price, item.Quantity,
			item.VendorID, item.VendorEmail, item.VendorBusinessName)
		if err != nil {
			return unavailable(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return unavailable(err)
	}
	order.ID = id
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (domain.Order, error) {
	var (
		o                      domain.Order
		riderID, riderEmail    sql.NullString
		updatedAt, availableAt sql.NullTime
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerEmail, &o.CustomerPhone,
		&o.Total, &o.DeliveryFee, &o.GrandTotal, &o.Status,
		&o.DeliveryAddress.AddressLine1, &o.DeliveryAddress.AddressLine2, &o.DeliveryAddress.City,
		&o.DeliveryAddress.PostalCode, &o.DeliveryAddress.PhoneNumber,
		&riderID, &riderEmail, &o.CreatedAt, &updatedAt, &availableAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.RiderID = riderID.String
	o.RiderEmail = riderEmail.String
	if updatedAt.Valid {
		o.UpdatedAt = updatedAt.Time
	}
	if availableAt.Valid {
		o.MadeAvailableAt = availableAt.Time
	}
	o.Items = []domain.OrderItem{}
	return o, nil
}

func (r *Repository) FetchByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders.orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, unavailable(err)
	}

	byID := map[string]*domain.Order{order.ID: &order}
	if err := r.loadItems(ctx, byID, []string{order.ID}); err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchAll loads every order newest first, with items fetched in one query.
func (r *Repository) FetchAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders.orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]*domain.Order)
	var ids []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		byID[order.ID] = &order
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}

	if len(ids) == 0 {
		return []domain.Order{}, nil
	}

	if err := r.loadItems(ctx, byID, ids); err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(ids))
	for _, id := range ids {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (r *Repository) loadItems(ctx context.Context, byID map[string]*domain.Order, ids []string) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, price, quantity, vendor_id, vendor_email, vendor_business_name
		FROM orders.order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(ids))
	if err != nil {
		return unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity,
			&item.VendorID, &item.VendorEmail, &item.VendorBusinessName); err != nil {
			return unavailable(err)
		}
		if order, ok := byID[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Update writes the patch in a single guarded UPDATE. When the guard rejects
// the row, the current record is re-read to report why.
func (r *Repository) Update(ctx context.Context, id string, patch domain.OrderPatch) error {
	args := []any{id}
	var sets []string
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.UpdatedAt != nil {
		set("updated_at", *patch.UpdatedAt)
	}
	if patch.MadeAvailableAt != nil {
		set("made_available_at", *patch.MadeAvailableAt)
	}
	if patch.RiderID != nil {
		set("rider_id", nullString(*patch.RiderID))
	}
	if patch.RiderEmail != nil {
		set("rider_email", nullString(*patch.RiderEmail))
	}

	if len(sets) == 0 {
		_, err := r.FetchByID(ctx, id)
		return err
	}

	where := "id = $1"
	if patch.If.Status != "" {
		args = append(args, patch.If.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if patch.If.Unclaimed {
		where += " AND (rider_id IS NULL OR rider_id = '')"
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE orders.orders SET "+strings.Join(sets, ", ")+" WHERE "+where, args...)
	if err != nil {
		return unavailable(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n > 0 {
		return nil
	}

	current, err := r.FetchByID(ctx, id)
	if err != nil {
		return err
	}
	if err := checkCondition(*current, patch.If); err != nil {
		return err
	}
	// The row matches now but did not when the UPDATE ran.
	return domain.ErrStaleOrder
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders.orders WHERE id = $1`, id)
	if err != nil {
		return unavailable(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
