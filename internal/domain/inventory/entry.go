// Package inventory maintains the stock ledger: every change to a product's
// on-hand quantity is recorded as an Entry and applied to Product.Quantity in
// the same transaction.
package inventory

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrEntryNotFound is returned when a ledger entry does not exist.
	ErrEntryNotFound = errors.New("stock entry not found")
	// ErrNegativeQuantity is returned by Tx.AdjustQuantity when the adjustment
	// would drive the on-hand quantity below zero. Nothing is written.
	ErrNegativeQuantity = errors.New("quantity would become negative")
	// ErrQuantityOverflow is returned by Tx.AdjustQuantity when the new
	// quantity does not fit in an int64. Nothing is written.
	ErrQuantityOverflow = errors.New("quantity out of range")
)

// AddQuantity returns a+b, reporting false when the sum overflows int64.
func AddQuantity(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// Entry is one stock-affecting ledger row. Positive amounts record received
// stock, negative amounts record consumed stock.
type Entry struct {
	ID        int64
	ProductID int64
	ActorID   int64
	Amount    int64
	CreatedAt time.Time
}

// Tx is the set of ledger writes available inside a single transaction.
type Tx interface {
	// AdjustQuantity adds delta to the product's quantity and returns the new
	// value. It returns product.ErrNotFound or ErrNegativeQuantity without
	// writing.
	AdjustQuantity(ctx context.Context, productID, delta int64) (int64, error)
	// InsertEntry stores e and fills in its ID and CreatedAt.
	InsertEntry(ctx context.Context, e *Entry) error
	// LockEntry reads an entry and holds it until the transaction ends.
	LockEntry(ctx context.Context, id int64) (*Entry, error)
	UpdateEntryAmount(ctx context.Context, id, amount int64) error
	DeleteEntry(ctx context.Context, id int64) error
}

// Repository persists ledger entries.
type Repository interface {
	// InTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetEntry(ctx context.Context, id int64) (*Entry, error)
	CountByProduct(ctx context.Context, productID int64) (int, error)
	// ListByProduct returns entries newest first.
	ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]Entry, error)
	CountByActor(ctx context.Context, actorID int64) (int, error)
	// ListByActor returns entries newest first.
	ListByActor(ctx context.Context, actorID int64, limit, offset int) ([]Entry, error)
}
