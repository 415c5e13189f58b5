package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item whose Quantity is maintained by the stock ledger.
type Product struct {
	ID       int64
	Title    string
	Price    decimal.Decimal
	Quantity int64
}

// Catalog reads products by id.
type Catalog interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
}
