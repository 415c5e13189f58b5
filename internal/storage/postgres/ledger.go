package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shop-ledger/internal/domain/inventory"
)

const (
	entryColumns = `id, product_id, actor_id, amount, created_at`

	getEntrySQL = `SELECT ` + entryColumns + ` FROM stock_entries WHERE id = $1`

	countEntriesByProductSQL = `SELECT count(*) FROM stock_entries WHERE product_id = $1`

	listEntriesByProductSQL = `SELECT ` + entryColumns + ` FROM stock_entries
		WHERE product_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`

	countEntriesByActorSQL = `SELECT count(*) FROM stock_entries WHERE actor_id = $1`

	listEntriesByActorSQL = `SELECT ` + entryColumns + ` FROM stock_entries
		WHERE actor_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`
)

var _ inventory.Repository = (*LedgerRepository)(nil)

// LedgerRepository implements inventory.Repository backed by PostgreSQL.
type LedgerRepository struct {
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

// NewLedgerRepository returns a LedgerRepository that uses the given pool.
// A positive txTimeout bounds every transaction.
func NewLedgerRepository(pool *pgxpool.Pool, txTimeout time.Duration) *LedgerRepository {
	return &LedgerRepository{pool: pool, txTimeout: txTimeout}
}

// InTx runs fn in a transaction, retrying once on serialization failure.
func (r *LedgerRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return runTx(ctx, r.pool, r.txTimeout, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txn{tx: tx})
	})
}

// GetEntry returns a single ledger entry.
func (r *LedgerRepository) GetEntry(ctx context.Context, id int64) (*inventory.Entry, error) {
	rows, err := r.pool.Query(ctx, getEntrySQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get entry %d", id)
	}
	e, err := pgx.CollectExactlyOneRow(rows, scanEntry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrEntryNotFound
		}
		return nil, errors.Wrapf(err, "get entry %d", id)
	}
	return &e, nil
}

// CountByProduct returns the number of entries recorded for a product.
func (r *LedgerRepository) CountByProduct(ctx context.Context, productID int64) (int, error) {
	return count(ctx, r.pool, countEntriesByProductSQL, productID)
}

// ListByProduct returns a product's entries newest first.
func (r *LedgerRepository) ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]inventory.Entry, error) {
	rows, err := r.pool.Query(ctx, listEntriesByProductSQL, productID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list entries by product")
	}
	return pgx.CollectRows(rows, scanEntry)
}

// CountByActor returns the number of entries recorded by a user.
func (r *LedgerRepository) CountByActor(ctx context.Context, actorID int64) (int, error) {
	return count(ctx, r.pool, countEntriesByActorSQL, actorID)
}

// ListByActor returns a user's entries newest first.
func (r *LedgerRepository) ListByActor(ctx context.Context, actorID int64, limit, offset int) ([]inventory.Entry, error) {
	rows, err := r.pool.Query(ctx, listEntriesByActorSQL, actorID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list entries by actor")
	}
	return pgx.CollectRows(rows, scanEntry)
}

func scanEntry(row pgx.CollectableRow) (inventory.Entry, error) {
	var e inventory.Entry
	err := row.Scan(&e.ID, &e.ProductID, &e.ActorID, &e.Amount, &e.CreatedAt)
	return e, err
}

func count(ctx context.Context, q querier, sql string, args ...any) (int, error) {
	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count rows")
	}
	return n, nil
}
