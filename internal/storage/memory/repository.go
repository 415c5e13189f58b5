package memory

import (
	"context"
	"sort"

	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/product"
)

// txn operates on the live state while the store lock is held.
type txn struct {
	store *Store
}

func (t *txn) AdjustQuantity(_ context.Context, productID, delta int64) (int64, error) {
	p, ok := t.store.st.products[productID]
	if !ok {
		return 0, product.ErrNotFound
	}
	q, ok := inventory.AddQuantity(p.Quantity, delta)
	if !ok {
		return 0, inventory.ErrQuantityOverflow
	}
	if q < 0 {
		return 0, inventory.ErrNegativeQuantity
	}
	p.Quantity = q
	t.store.st.products[productID] = p
	return p.Quantity, nil
}

func (t *txn) InsertEntry(_ context.Context, e *inventory.Entry) error {
	t.store.st.lastEntry++
	e.ID = t.store.st.lastEntry
	e.CreatedAt = t.store.now()
	t.store.st.entries[e.ID] = *e
	return nil
}

func (t *txn) LockEntry(_ context.Context, id int64) (*inventory.Entry, error) {
	e, ok := t.store.st.entries[id]
	if !ok {
		return nil, inventory.ErrEntryNotFound
	}
	return &e, nil
}

func (t *txn) UpdateEntryAmount(_ context.Context, id, amount int64) error {
	e, ok := t.store.st.entries[id]
	if !ok {
		return inventory.ErrEntryNotFound
	}
	e.Amount = amount
	t.store.st.entries[id] = e
	return nil
}

func (t *txn) DeleteEntry(_ context.Context, id int64) error {
	if _, ok := t.store.st.entries[id]; !ok {
		return inventory.ErrEntryNotFound
	}
	delete(t.store.st.entries, id)
	return nil
}

func (t *txn) InsertOrder(_ context.Context, o *order.Order) error {
	t.store.st.lastOrder++
	o.ID = t.store.st.lastOrder
	o.CreatedAt = t.store.now()
	t.store.st.orders[o.ID] = copyOrder(*o)
	return nil
}

func (t *txn) LockOrder(_ context.Context, id int64) (*order.Order, error) {
	o, ok := t.store.st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (t *txn) UpdateOrderState(_ context.Context, id int64, status order.Status, payment order.PaymentStatus) error {
	o, ok := t.store.st.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	o.PaymentStatus = payment
	t.store.st.orders[id] = o
	return nil
}

// LedgerRepository implements inventory.Repository over a Store.
type LedgerRepository struct {
	store *Store
}

func (r *LedgerRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return r.store.inTx(ctx, func(t *txn) error { return fn(ctx, t) })
}

func (r *LedgerRepository) GetEntry(_ context.Context, id int64) (*inventory.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	e, ok := r.store.st.entries[id]
	if !ok {
		return nil, inventory.ErrEntryNotFound
	}
	return &e, nil
}

func (r *LedgerRepository) CountByProduct(_ context.Context, productID int64) (int, error) {
	return len(r.filter(func(e inventory.Entry) bool { return e.ProductID == productID })), nil
}

func (r *LedgerRepository) ListByProduct(_ context.Context, productID int64, limit, offset int) ([]inventory.Entry, error) {
	return window(r.filter(func(e inventory.Entry) bool { return e.ProductID == productID }), limit, offset), nil
}

func (r *LedgerRepository) CountByActor(_ context.Context, actorID int64) (int, error) {
	return len(r.filter(func(e inventory.Entry) bool { return e.ActorID == actorID })), nil
}

func (r *LedgerRepository) ListByActor(_ context.Context, actorID int64, limit, offset int) ([]inventory.Entry, error) {
	return window(r.filter(func(e inventory.Entry) bool { return e.ActorID == actorID }), limit, offset), nil
}

// filter returns matching entries newest first.
func (r *LedgerRepository) filter(match func(inventory.Entry) bool) []inventory.Entry {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []inventory.Entry
	for _, e := range r.store.st.entries {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// OrderRepository implements order.Repository over a Store.
type OrderRepository struct {
	store *Store
}

func (r *OrderRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return r.store.inTx(ctx, func(t *txn) error { return fn(ctx, t) })
}

func (r *OrderRepository) GetOrder(_ context.Context, id int64) (*order.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	o, ok := r.store.st.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

func (r *OrderRepository) Count(_ context.Context, f order.Filter) (int, error) {
	return len(r.filter(f)), nil
}

func (r *OrderRepository) List(_ context.Context, f order.Filter, limit, offset int) ([]order.Order, error) {
	return window(r.filter(f), limit, offset), nil
}

// filter returns matching orders newest first.
func (r *OrderRepository) filter(f order.Filter) []order.Order {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []order.Order
	for _, o := range r.store.st.orders {
		if f.CustomerID == 0 || o.CustomerID == f.CustomerID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

var (
	_ inventory.Tx         = (*txn)(nil)
	_ order.Tx             = (*txn)(nil)
	_ inventory.Repository = (*LedgerRepository)(nil)
	_ order.Repository     = (*OrderRepository)(nil)
)
