package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/product"
)

const (
	// The conditional update takes the row lock and re-checks the predicate
	// against the latest committed quantity, so concurrent decrements of the
	// same product serialize and none can overdraw it.
	adjustQuantitySQL = `UPDATE products SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity`

	productExistsSQL = `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`

	insertEntrySQL = `INSERT INTO stock_entries (product_id, actor_id, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	lockEntrySQL = `SELECT id, product_id, actor_id, amount, created_at
		FROM stock_entries WHERE id = $1 FOR UPDATE`

	updateEntryAmountSQL = `UPDATE stock_entries SET amount = $2 WHERE id = $1`

	deleteEntrySQL = `DELETE FROM stock_entries WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (customer_id, total, status, payment_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	insertOrderLineSQL = `INSERT INTO order_lines (order_id, position, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	lockOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	updateOrderStateSQL = `UPDATE orders SET status = $2, payment_status = $3 WHERE id = $1`
)

// txn implements order.Tx, and with it inventory.Tx, over a pgx transaction.
type txn struct {
	tx pgx.Tx
}

var _ order.Tx = (*txn)(nil)

func (t *txn) AdjustQuantity(ctx context.Context, productID, delta int64) (int64, error) {
	var quantity int64
	err := t.tx.QueryRow(ctx, adjustQuantitySQL, productID, delta).Scan(&quantity)
	if err == nil {
		return quantity, nil
	}
	if outOfRange(err) {
		return 0, inventory.ErrQuantityOverflow
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, errors.Wrapf(err, "adjust product %d", productID)
	}

	var exists bool
	if err := t.tx.QueryRow(ctx, productExistsSQL, productID).Scan(&exists); err != nil {
		return 0, errors.Wrapf(err, "check product %d", productID)
	}
	if !exists {
		return 0, product.ErrNotFound
	}
	return 0, inventory.ErrNegativeQuantity
}

func (t *txn) InsertEntry(ctx context.Context, e *inventory.Entry) error {
	err := t.tx.QueryRow(ctx, insertEntrySQL, e.ProductID, e.ActorID, e.Amount).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert stock entry")
	}
	return nil
}

func (t *txn) LockEntry(ctx context.Context, id int64) (*inventory.Entry, error) {
	rows, err := t.tx.Query(ctx, lockEntrySQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "lock entry %d", id)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrEntryNotFound
		}
		return nil, errors.Wrapf(err, "lock entry %d", id)
	}
	return &e, nil
}

func (t *txn) UpdateEntryAmount(ctx context.Context, id, amount int64) error {
	tag, err := t.tx.Exec(ctx, updateEntryAmountSQL, id, amount)
	if err != nil {
		return errors.Wrapf(err, "update entry %d", id)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrEntryNotFound
	}
	return nil
}

func (t *txn) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, deleteEntrySQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete entry %d", id)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrEntryNotFound
	}
	return nil
}

func (t *txn) InsertOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, insertOrderSQL,
		o.CustomerID, o.Total, string(o.Status), string(o.PaymentStatus),
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	b := &pgx.Batch{}
	for i, l := range o.Items {
		b.Queue(insertOrderLineSQL, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice)
	}
	if err := t.tx.SendBatch(ctx, b).Close(); err != nil {
		return errors.Wrapf(err, "insert lines of order %d", o.ID)
	}
	return nil
}

func (t *txn) LockOrder(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := t.tx.Query(ctx, lockOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "lock order %d", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "lock order %d", id)
	}

	orders := []order.Order{o}
	if err := loadLines(ctx, t.tx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (t *txn) UpdateOrderState(ctx context.Context, id int64, status order.Status, payment order.PaymentStatus) error {
	tag, err := t.tx.Exec(ctx, updateOrderStateSQL, id, string(status), string(payment))
	if err != nil {
		return errors.Wrapf(err, "update order %d", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
