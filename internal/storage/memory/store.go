// Package memory is an in-process implementation of the storage ports.
//
// Transactions are serialized by a single lock and roll back by restoring a
// snapshot taken when they started, which makes the store suitable for tests
// and local runs that need real commit/rollback behaviour without a database.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/product"
)

type state struct {
	products map[int64]product.Product
	users    map[int64]auth.User
	keys     map[string]auth.APIKey
	entries  map[int64]inventory.Entry
	orders   map[int64]order.Order

	lastProduct int64
	lastUser    int64
	lastKey     int64
	lastEntry   int64
	lastOrder   int64
}

func (s *state) clone() state {
	c := *s
	c.products = cloneMap(s.products)
	c.users = cloneMap(s.users)
	c.keys = cloneMap(s.keys)
	c.entries = cloneMap(s.entries)
	c.orders = make(map[int64]order.Order, len(s.orders))
	for id, o := range s.orders {
		c.orders[id] = copyOrder(o)
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	c := make(map[K]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func copyOrder(o order.Order) order.Order {
	o.Items = slices.Clone(o.Items)
	return o
}

// Store holds every entity in memory.
type Store struct {
	mu  sync.Mutex
	now func() time.Time
	st  state
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		now: time.Now,
		st: state{
			products: make(map[int64]product.Product),
			users:    make(map[int64]auth.User),
			keys:     make(map[string]auth.APIKey),
			entries:  make(map[int64]inventory.Entry),
			orders:   make(map[int64]order.Order),
		},
	}
}

// inTx runs fn against the live state under the store lock. The state is
// restored if fn fails or ctx ends before commit.
func (s *Store) inTx(ctx context.Context, fn func(*txn) error) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "begin tx")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&txn{store: s}); err != nil {
		s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.st = snapshot
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// AddProduct stores p with a new id and returns it.
func (s *Store) AddProduct(p product.Product) product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.lastProduct++
	p.ID = s.st.lastProduct
	s.st.products[p.ID] = p
	return p
}

// SetProductPrice changes a product's catalog price.
func (s *Store) SetProductPrice(id int64, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.st.products[id]; ok {
		p.Price = price
		s.st.products[id] = p
	}
}

// AddUser stores u with a new id and returns it.
func (s *Store) AddUser(u auth.User) auth.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.lastUser++
	u.ID = s.st.lastUser
	s.st.users[u.ID] = u
	return u
}

// AddAPIKey stores k under its hash.
func (s *Store) AddAPIKey(k auth.APIKey) auth.APIKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.st.lastKey++
	k.ID = s.st.lastKey
	s.st.keys[k.KeyHash] = k
	return k
}

// GetByID returns a product.
func (s *Store) GetByID(_ context.Context, id int64) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.st.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

// GetUser returns a user.
func (s *Store) GetUser(_ context.Context, id int64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.st.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

// FindByHash returns the API key with the given hash.
func (s *Store) FindByHash(_ context.Context, hash string) (*auth.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k, ok := s.st.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return &k, nil
}

// LedgerSum returns the sum of every entry amount recorded for productID.
func (s *Store) LedgerSum(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, e := range s.st.entries {
		if e.ProductID == productID {
			sum += e.Amount
		}
	}
	return sum
}

// Ledger returns the store as an inventory.Repository.
func (s *Store) Ledger() *LedgerRepository {
	return &LedgerRepository{store: s}
}

// Orders returns the store as an order.Repository.
func (s *Store) Orders() *OrderRepository {
	return &OrderRepository{store: s}
}

var (
	_ product.Catalog    = (*Store)(nil)
	_ auth.Users         = (*Store)(nil)
	_ auth.KeyRepository = (*Store)(nil)
)
