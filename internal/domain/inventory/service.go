package inventory

import (
	"context"
	"math"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/failure"
	"github.com/xenking/shop-ledger/internal/domain/pagination"
	"github.com/xenking/shop-ledger/internal/domain/product"
)

// Service exposes the ledger operations. It is the only writer of stock
// entries and of Product.Quantity.
type Service struct {
	repo    Repository
	catalog product.Catalog
	users   auth.Users
}

// NewService creates an inventory Service.
func NewService(repo Repository, catalog product.Catalog, users auth.Users) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		users:   users,
	}
}

// AddEntry records amount units of stock for productID on behalf of actor.
// Only administrators may write the ledger directly.
func (s *Service) AddEntry(ctx context.Context, actor auth.Actor, productID, amount int64) (*Entry, error) {
	if !actor.IsAdmin() {
		return nil, failure.Forbidden("only administrators can record stock entries")
	}
	if amount == 0 {
		return nil, failure.Invalid("amount must not be zero")
	}

	var entry *Entry
	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		e, err := s.AppendTx(ctx, tx, productID, amount, actor.UserID)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "add entry")
	}

	zctx.From(ctx).Info("Stock entry recorded",
		zap.Int64("entry_id", entry.ID),
		zap.Int64("product_id", productID),
		zap.Int64("amount", amount),
	)
	return entry, nil
}

// AppendTx records an entry inside a transaction owned by the caller. The
// quantity check and the insert happen in tx, so a failure leaves nothing
// written once tx rolls back. No role check is made: callers attribute the
// entry to actorID themselves.
func (s *Service) AppendTx(ctx context.Context, tx Tx, productID, amount, actorID int64) (*Entry, error) {
	if amount == 0 {
		return nil, failure.Invalid("amount must not be zero")
	}
	if _, err := tx.AdjustQuantity(ctx, productID, amount); err != nil {
		return nil, adjustError(err, productID)
	}

	e := &Entry{
		ProductID: productID,
		ActorID:   actorID,
		Amount:    amount,
	}
	if err := tx.InsertEntry(ctx, e); err != nil {
		return nil, errors.Wrap(err, "insert entry")
	}
	return e, nil
}

// AmendEntry replaces an entry's amount and moves the product quantity by the
// difference in the same transaction.
func (s *Service) AmendEntry(ctx context.Context, actor auth.Actor, entryID, newAmount int64) (*Entry, error) {
	if !actor.IsAdmin() {
		return nil, failure.Forbidden("only administrators can amend stock entries")
	}
	if newAmount == 0 {
		return nil, failure.Invalid("amount must not be zero")
	}

	var entry *Entry
	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		e, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return entryError(err, entryID)
		}
		delta, ok := AddQuantity(newAmount, -e.Amount)
		if !ok || e.Amount == math.MinInt64 {
			return failure.Invalid("amending entry %d to %d is out of range", entryID, newAmount)
		}
		if delta != 0 {
			if _, err := tx.AdjustQuantity(ctx, e.ProductID, delta); err != nil {
				return adjustError(err, e.ProductID)
			}
		}
		if err := tx.UpdateEntryAmount(ctx, entryID, newAmount); err != nil {
			return errors.Wrap(err, "update entry amount")
		}
		e.Amount = newAmount
		entry = e
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "amend entry")
	}

	zctx.From(ctx).Info("Stock entry amended",
		zap.Int64("entry_id", entryID),
		zap.Int64("amount", newAmount),
	)
	return entry, nil
}

// RemoveEntry deletes an entry. When reverse is set the entry's amount is
// first taken back out of the product quantity; otherwise the quantity is
// left as is.
func (s *Service) RemoveEntry(ctx context.Context, actor auth.Actor, entryID int64, reverse bool) error {
	if !actor.IsAdmin() {
		return failure.Forbidden("only administrators can remove stock entries")
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, tx Tx) error {
		e, err := tx.LockEntry(ctx, entryID)
		if err != nil {
			return entryError(err, entryID)
		}
		if reverse {
			if e.Amount == math.MinInt64 {
				return failure.Invalid("entry %d cannot be reversed", entryID)
			}
			if _, err := tx.AdjustQuantity(ctx, e.ProductID, -e.Amount); err != nil {
				return adjustError(err, e.ProductID)
			}
		}
		if err := tx.DeleteEntry(ctx, entryID); err != nil {
			return errors.Wrap(err, "delete entry")
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "remove entry")
	}

	zctx.From(ctx).Info("Stock entry removed",
		zap.Int64("entry_id", entryID),
		zap.Bool("reverse", reverse),
	)
	return nil
}

// GetEntry returns a single ledger entry.
func (s *Service) GetEntry(ctx context.Context, actor auth.Actor, entryID int64) (*Entry, error) {
	e, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, entryError(err, entryID)
	}
	if !actor.CanAccess(e.ActorID) {
		return nil, failure.Forbidden("entry %d belongs to another user", entryID)
	}
	return e, nil
}

// ListByProduct pages through a product's entries, newest first.
func (s *Service) ListByProduct(ctx context.Context, actor auth.Actor, productID int64, page, pageSize int) (pagination.Page[Entry], error) {
	if !actor.IsAdmin() {
		return pagination.Page[Entry]{}, failure.Forbidden("only administrators can list product entries")
	}
	if _, err := s.catalog.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return pagination.Page[Entry]{}, failure.NotFound("product %d not found", productID)
		}
		return pagination.Page[Entry]{}, errors.Wrap(err, "get product")
	}

	total, err := s.repo.CountByProduct(ctx, productID)
	if err != nil {
		return pagination.Page[Entry]{}, errors.Wrap(err, "count entries")
	}
	w, err := pagination.Paginate(total, page, pageSize)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}
	items, err := s.repo.ListByProduct(ctx, productID, w.Limit, w.Skip)
	if err != nil {
		return pagination.Page[Entry]{}, errors.Wrap(err, "list entries")
	}
	return pagination.NewPage(w, total, items), nil
}

// ListByActor pages through the entries recorded by actorID, newest first.
// Users may list their own entries; administrators may list anyone's.
func (s *Service) ListByActor(ctx context.Context, actor auth.Actor, actorID int64, page, pageSize int) (pagination.Page[Entry], error) {
	if !actor.CanAccess(actorID) {
		return pagination.Page[Entry]{}, failure.Forbidden("cannot list entries of another user")
	}
	if _, err := s.users.GetUser(ctx, actorID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return pagination.Page[Entry]{}, failure.NotFound("user %d not found", actorID)
		}
		return pagination.Page[Entry]{}, errors.Wrap(err, "get user")
	}

	total, err := s.repo.CountByActor(ctx, actorID)
	if err != nil {
		return pagination.Page[Entry]{}, errors.Wrap(err, "count entries")
	}
	w, err := pagination.Paginate(total, page, pageSize)
	if err != nil {
		return pagination.Page[Entry]{}, err
	}
	items, err := s.repo.ListByActor(ctx, actorID, w.Limit, w.Skip)
	if err != nil {
		return pagination.Page[Entry]{}, errors.Wrap(err, "list entries")
	}
	return pagination.NewPage(w, total, items), nil
}

func adjustError(err error, productID int64) error {
	switch {
	case errors.Is(err, product.ErrNotFound):
		return failure.NotFound("product %d not found", productID)
	case errors.Is(err, ErrNegativeQuantity):
		return failure.Conflict("insufficient stock for product %d", productID)
	case errors.Is(err, ErrQuantityOverflow):
		return failure.Invalid("quantity of product %d would exceed the supported range", productID)
	default:
		return errors.Wrap(err, "adjust quantity")
	}
}

func entryError(err error, entryID int64) error {
	if errors.Is(err, ErrEntryNotFound) {
		return failure.NotFound("stock entry %d not found", entryID)
	}
	return errors.Wrap(err, "get entry")
}
