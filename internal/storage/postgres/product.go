package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-ledger/internal/domain/product"
)

const (
	getProductByIDSQL = `SELECT id, title, price, quantity FROM products WHERE id = $1`

	// Quantity is never written here; it only moves through the ledger.
	upsertProductSQL = `INSERT INTO products (title, price) VALUES ($1, $2)
		ON CONFLICT (title) DO UPDATE SET price = EXCLUDED.price
		RETURNING id, quantity`
)

var _ product.Catalog = (*ProductRepository)(nil)

// ProductRepository implements product.Catalog backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return &p, nil
}

// Upsert creates p or updates the price of the product with the same title.
// It fills in ID and the current Quantity.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	if err := r.pool.QueryRow(ctx, upsertProductSQL, p.Title, p.Price).Scan(&p.ID, &p.Quantity); err != nil {
		return errors.Wrapf(err, "upsert product %q", p.Title)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Title, &price, &p.Quantity)
	p.Price = price
	return p, err
}
