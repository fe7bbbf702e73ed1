package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

const productColumns = `id, name, price, stock, category, subcategory, unit, image_url, vendor_id, created_at, updated_at`

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

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var (
		p         domain.Product
		updatedAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Subcategory,
		&p.Unit, &p.ImageURL, &p.VendorID, &p.CreatedAt, &updatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if updatedAt.Valid {
		p.UpdatedAt = updatedAt.Time
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context, q Query) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM catalog.products
		WHERE ($1::text = '' OR vendor_id = $1)
		  AND ($2::text = '' OR lower(category) = lower($2::text))
		  AND ($3::text = '' OR lower(subcategory) = lower($3::text))
		  AND ($4::text = '' OR strpos(lower(name), lower($4::text)) > 0)
		ORDER BY name
	`, q.VendorID, q.Category, q.Subcategory, q.Search)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, unavailable(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return products, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM catalog.products
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(err)
	}
	return &p, nil
}

func (r *Repository) Create(ctx context.Context, product *domain.Product) error {
	id := uuid.New().String()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO catalog.products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, id, product.Name, product.Price, product.Stock, product.Category, product.Subcategory,
		product.Unit, product.ImageURL, product.VendorID, product.CreatedAt, nullTime(product.UpdatedAt))
	if err != nil {
		return unavailable(err)
	}
	product.ID = id
	return nil
}

func (r *Repository) Save(ctx context.Context, product domain.Product) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE catalog.products
		SET name = $2, price = $3, stock = $4, category = $5, subcategory = $6,
			unit = $7, image_url = $8, updated_at = $9
		WHERE id = $1
	`, product.ID, product.Name, product.Price, product.Stock, product.Category,
		product.Subcategory, product.Unit, product.ImageURL, nullTime(product.UpdatedAt))
	if err != nil {
		return unavailable(err)
	}
	return expectRow(result)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM catalog.products WHERE id = $1`, id)
	if err != nil {
		return unavailable(err)
	}
	return expectRow(result)
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog.products`).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
