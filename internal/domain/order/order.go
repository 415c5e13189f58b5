package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-ledger/internal/domain/inventory"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusShipped   Status = "Shipped"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var statusTransitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusShipped, StatusCancelled},
	StatusShipped: {StatusCompleted},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "Unpaid"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentUnpaid: {PaymentPaid},
	PaymentPaid:   {PaymentRefunded},
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from p to next is legal.
func (p PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[p] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Line is one product in an order. UnitPrice is the catalog price at the time
// the order was placed.
type Line struct {
	ProductID int64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Subtotal returns Quantity × UnitPrice.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(l.Quantity))
}

// Order is a customer order. Orders are never deleted; cancellation is a
// status.
type Order struct {
	ID            int64
	CustomerID    int64
	Items         []Line
	Total         decimal.Decimal
	Status        Status
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// ItemRequest is a requested line of a new order.
type ItemRequest struct {
	ProductID int64
	Quantity  int64
}

// Tx is the set of writes available inside an order transaction. It includes
// the ledger writes so stock moves commit together with the order state.
type Tx interface {
	inventory.Tx

	// InsertOrder stores o with its lines and fills in ID and CreatedAt.
	InsertOrder(ctx context.Context, o *Order) error
	// LockOrder reads an order and holds it until the transaction ends.
	LockOrder(ctx context.Context, id int64) (*Order, error)
	UpdateOrderState(ctx context.Context, id int64, status Status, payment PaymentStatus) error
}

// Filter narrows order listings. A zero CustomerID matches every customer.
type Filter struct {
	CustomerID int64
}

// Repository persists orders.
type Repository interface {
	// InTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetOrder(ctx context.Context, id int64) (*Order, error)
	Count(ctx context.Context, f Filter) (int, error)
	// List returns orders newest first.
	List(ctx context.Context, f Filter, limit, offset int) ([]Order, error)
}
