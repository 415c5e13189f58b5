package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-ledger/internal/domain/order"
)

const (
	orderColumns = `id, customer_id, total, status, payment_status, created_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	countOrdersSQL = `SELECT count(*) FROM orders WHERE ($1::bigint = 0 OR customer_id = $1)`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::bigint = 0 OR customer_id = $1)
		ORDER BY id DESC LIMIT $2 OFFSET $3`

	listOrderLinesSQL = `SELECT order_id, product_id, quantity, unit_price
		FROM order_lines WHERE order_id = ANY($1)
		ORDER BY order_id, position`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
// A positive txTimeout bounds every transaction.
func NewOrderRepository(pool *pgxpool.Pool, txTimeout time.Duration) *OrderRepository {
	return &OrderRepository{pool: pool, txTimeout: txTimeout}
}

// InTx runs fn in a transaction, retrying once on serialization failure.
func (r *OrderRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return runTx(ctx, r.pool, r.txTimeout, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txn{tx: tx})
	})
}

// GetOrder returns an order with its lines.
func (r *OrderRepository) GetOrder(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}

	orders := []order.Order{o}
	if err := loadLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// Count returns the number of orders matching f.
func (r *OrderRepository) Count(ctx context.Context, f order.Filter) (int, error) {
	return count(ctx, r.pool, countOrdersSQL, f.CustomerID)
}

// List returns orders matching f newest first, with their lines.
func (r *OrderRepository) List(ctx context.Context, f order.Filter, limit, offset int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, f.CustomerID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if err := loadLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o       order.Order
		total   decimal.Decimal
		status  string
		payment string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &total, &status, &payment, &o.CreatedAt)
	o.Total = total
	o.Status = order.Status(status)
	o.PaymentStatus = order.PaymentStatus(payment)
	return o, err
}

// loadLines fills Items of every order in one query.
func loadLines(ctx context.Context, q querier, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := q.Query(ctx, listOrderLinesSQL, ids)
	if err != nil {
		return errors.Wrap(err, "list order lines")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			l       order.Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return errors.Wrap(err, "scan order line")
		}
		i := index[orderID]
		orders[i].Items = append(orders[i].Items, l)
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "list order lines")
	}
	return nil
}
