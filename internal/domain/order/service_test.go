package order_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/failure"
	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/product"
	"github.com/xenking/shop-ledger/internal/storage/memory"
)

// --- Fakes ---

type recordingPublisher struct {
	mu     sync.Mutex
	events []order.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e order.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []order.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]order.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// --- Helpers ---

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	inventory *inventory.Service
	svc       *order.Service
	events    *recordingPublisher
	admin     auth.Actor
	customer  auth.Actor
	other     auth.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	admin := store.AddUser(auth.User{Email: "admin@example.com", Role: auth.RoleAdmin})
	customer := store.AddUser(auth.User{Email: "alice@example.com", Role: auth.RoleUser})
	other := store.AddUser(auth.User{Email: "bob@example.com", Role: auth.RoleUser})

	inv := inventory.NewService(store.Ledger(), store, store)
	events := &recordingPublisher{}
	svc, err := order.NewService(store, inv, store.Orders(),
		order.WithPublisher(events),
		order.WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)

	return &fixture{
		store:     store,
		inventory: inv,
		svc:       svc,
		events:    events,
		admin:     auth.Actor{UserID: admin.ID, Role: auth.RoleAdmin},
		customer:  auth.Actor{UserID: customer.ID, Role: auth.RoleUser},
		other:     auth.Actor{UserID: other.ID, Role: auth.RoleUser},
	}
}

// addProduct creates a product and records its opening stock in the ledger.
func (f *fixture) addProduct(t *testing.T, price string, stock int64) int64 {
	t.Helper()
	p := f.store.AddProduct(product.Product{Title: "Item", Price: decimal.RequireFromString(price)})
	if stock > 0 {
		_, err := f.inventory.AddEntry(context.Background(), f.admin, p.ID, stock)
		require.NoError(t, err)
	}
	return p.ID
}

func (f *fixture) quantity(t *testing.T, productID int64) int64 {
	t.Helper()
	p, err := f.store.GetByID(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, f.store.LedgerSum(productID), p.Quantity, "ledger and quantity diverged")
	assert.GreaterOrEqual(t, p.Quantity, int64(0))
	return p.Quantity
}

func (f *fixture) create(t *testing.T, actor auth.Actor, items ...order.ItemRequest) *order.Order {
	t.Helper()
	o, err := f.svc.Create(context.Background(), actor, items)
	require.NoError(t, err)
	return o
}

// --- Create ---

func TestCreate(t *testing.T) {
	f := newFixture(t)
	p1 := f.addProduct(t, "10.50", 5)
	p2 := f.addProduct(t, "3.25", 10)

	o := f.create(t, f.customer,
		order.ItemRequest{ProductID: p1, Quantity: 2},
		order.ItemRequest{ProductID: p2, Quantity: 3},
	)

	assert.NotZero(t, o.ID)
	assert.Equal(t, f.customer.UserID, o.CustomerID)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentUnpaid, o.PaymentStatus)
	assert.True(t, decimal.RequireFromString("30.75").Equal(o.Total), "total %s", o.Total)
	require.Len(t, o.Items, 2)
	assert.True(t, decimal.RequireFromString("10.50").Equal(o.Items[0].UnitPrice))

	assert.Equal(t, int64(3), f.quantity(t, p1))
	assert.Equal(t, int64(7), f.quantity(t, p2))

	// Order-driven entries are attributed to the customer.
	page, err := f.inventory.ListByActor(context.Background(), f.customer, f.customer.UserID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalItems)

	assert.Equal(t, []order.EventType{order.EventCreated}, f.events.types())
	assert.Equal(t, fixedNow, f.events.events[0].OccurredAt)
}

func TestCreate_AppliesLinesByProductID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.addProduct(t, "1.00", 5)
	p2 := f.addProduct(t, "2.00", 5)

	o := f.create(t, f.customer,
		order.ItemRequest{ProductID: p2, Quantity: 1},
		order.ItemRequest{ProductID: p1, Quantity: 2},
	)
	require.Len(t, o.Items, 2)
	assert.Equal(t, p2, o.Items[0].ProductID, "order keeps request order")
	assert.Equal(t, p1, o.Items[1].ProductID)

	page, err := f.inventory.ListByActor(ctx, f.customer, f.customer.UserID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	// Newest first: the p2 entry was written after the p1 entry.
	assert.Equal(t, p2, page.Items[0].ProductID)
	assert.Equal(t, p1, page.Items[1].ProductID)

	_, err = f.svc.Cancel(ctx, f.customer, o.ID)
	require.NoError(t, err)
	page, err = f.inventory.ListByActor(ctx, f.customer, f.customer.UserID, 1, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, p2, page.Items[0].ProductID)
	assert.Equal(t, int64(1), page.Items[0].Amount)
	assert.Equal(t, p1, page.Items[1].ProductID)
	assert.Equal(t, int64(2), page.Items[1].Amount)
}

func TestCreate_OppositeLineOrdersDoNotDeadlock(t *testing.T) {
	f := newFixture(t)
	p1 := f.addProduct(t, "1.00", 100)
	p2 := f.addProduct(t, "1.00", 100)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		items := []order.ItemRequest{{ProductID: p1, Quantity: 1}, {ProductID: p2, Quantity: 1}}
		if i%2 == 1 {
			items[0], items[1] = items[1], items[0]
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), f.customer, items)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(80), f.quantity(t, p1))
	assert.Equal(t, int64(80), f.quantity(t, p2))
}

func TestCreate_PriceSnapshot(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "4.00", 5)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 2})
	f.store.SetProductPrice(p, decimal.RequireFromString("100.00"))

	got, err := f.svc.GetOrder(context.Background(), f.customer, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("4.00").Equal(got.Items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("8.00").Equal(got.Total))
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "1.00", 5)

	tests := []struct {
		name  string
		items []order.ItemRequest
		kind  failure.Kind
	}{
		{name: "no items", items: nil, kind: failure.KindInvalid},
		{name: "zero quantity", items: []order.ItemRequest{{ProductID: p, Quantity: 0}}, kind: failure.KindInvalid},
		{name: "negative quantity", items: []order.ItemRequest{{ProductID: p, Quantity: -1}}, kind: failure.KindInvalid},
		{name: "missing product", items: []order.ItemRequest{{ProductID: 9999, Quantity: 1}}, kind: failure.KindNotFound},
		{name: "insufficient stock", items: []order.ItemRequest{{ProductID: p, Quantity: 6}}, kind: failure.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.customer, tt.items)
			require.Error(t, err)
			assert.Equal(t, tt.kind, failure.KindOf(err))
			assert.Equal(t, int64(5), f.quantity(t, p))
		})
	}

	n, err := f.store.Orders().Count(context.Background(), order.Filter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.events.types())
}

func TestCreate_PartialFailureLeavesNoDecrements(t *testing.T) {
	f := newFixture(t)
	p1 := f.addProduct(t, "1.00", 5)
	p2 := f.addProduct(t, "2.00", 5)
	p3 := f.addProduct(t, "3.00", 1)

	_, err := f.svc.Create(context.Background(), f.customer, []order.ItemRequest{
		{ProductID: p1, Quantity: 2},
		{ProductID: p2, Quantity: 4},
		{ProductID: p3, Quantity: 2},
	})
	assert.True(t, failure.Is(err, failure.KindConflict))

	assert.Equal(t, int64(5), f.quantity(t, p1))
	assert.Equal(t, int64(5), f.quantity(t, p2))
	assert.Equal(t, int64(1), f.quantity(t, p3))

	page, err := f.inventory.ListByActor(context.Background(), f.customer, f.customer.UserID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.TotalItems)
}

func TestCreate_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "5.00", 1)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  = make([]error, 2)
	)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Create(context.Background(), f.customer, []order.ItemRequest{{ProductID: p, Quantity: 1}})
		}()
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case failure.Is(err, failure.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)
	assert.Zero(t, f.quantity(t, p))
}

func TestCreate_PublishFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	f.events.err = errors.New("broker down")
	p := f.addProduct(t, "1.00", 3)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})
	assert.NotZero(t, o.ID)
	assert.Equal(t, int64(2), f.quantity(t, p))
}

// --- Cancel ---

func TestCreateThenCancel_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 3})
	assert.Equal(t, int64(2), f.quantity(t, p))

	cancelled, err := f.svc.Cancel(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Equal(t, order.PaymentUnpaid, cancelled.PaymentStatus)
	assert.Equal(t, int64(5), f.quantity(t, p))

	got, err := f.svc.GetOrder(ctx, f.admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)

	assert.Equal(t, []order.EventType{order.EventCreated, order.EventCancelled}, f.events.types())
}

func TestCancel_InterleavedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 10)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 4})

	_, err := f.inventory.AddEntry(ctx, f.admin, p, 7)
	require.NoError(t, err)
	other := f.create(t, f.other, order.ItemRequest{ProductID: p, Quantity: 5})
	_, err = f.inventory.AddEntry(ctx, f.admin, p, -2)
	require.NoError(t, err)
	before := f.quantity(t, p)

	_, err = f.svc.Cancel(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, before+4, f.quantity(t, p))

	_, err = f.svc.Cancel(ctx, f.other, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10+7-2), f.quantity(t, p))
}

func TestCancel_FromPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 2})
	_, err := f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentPaid)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, o.ID, order.StatusPaid)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, f.admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)
	assert.Equal(t, order.PaymentPaid, cancelled.PaymentStatus)
	assert.Equal(t, int64(5), f.quantity(t, p))
}

func TestCancel_Shipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 3})
	_, err := f.svc.UpdateStatus(ctx, f.admin, o.ID, order.StatusPaid)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.admin, o.ID, order.StatusShipped)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.customer, o.ID)
	assert.True(t, failure.Is(err, failure.KindInvalidTransition))
	assert.Equal(t, int64(2), f.quantity(t, p))
}

func TestCancel_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)

	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 3})
	_, err := f.svc.Cancel(ctx, f.customer, o.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.customer, o.ID)
	assert.True(t, failure.Is(err, failure.KindInvalidTransition))
	assert.Contains(t, failure.ResultOf(err).Error, "is already Cancelled")
	assert.Equal(t, int64(5), f.quantity(t, p))
}

func TestCancel_ConcurrentRestoresOnce(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 3})

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Cancel(context.Background(), f.customer, o.ID)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, failure.Is(err, failure.KindInvalidTransition), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, int64(5), f.quantity(t, p))
}

func TestCancel_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	_, err := f.svc.Cancel(ctx, f.other, o.ID)
	assert.True(t, failure.Is(err, failure.KindForbidden))
	assert.Equal(t, int64(4), f.quantity(t, p))

	_, err = f.svc.Cancel(ctx, f.customer, 9999)
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

// --- Status machine ---

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	for _, next := range []order.Status{order.StatusPaid, order.StatusShipped, order.StatusCompleted} {
		got, err := f.svc.UpdateStatus(ctx, f.admin, o.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
	}
	assert.Equal(t, int64(4), f.quantity(t, p))
}

func TestUpdateStatus_FromTerminal(t *testing.T) {
	all := []order.Status{
		order.StatusPending,
		order.StatusPaid,
		order.StatusShipped,
		order.StatusCompleted,
		order.StatusCancelled,
	}

	for _, terminal := range []order.Status{order.StatusCompleted, order.StatusCancelled} {
		for _, next := range all {
			t.Run(string(terminal)+"->"+string(next), func(t *testing.T) {
				f := newFixture(t)
				ctx := context.Background()
				p := f.addProduct(t, "2.00", 5)
				o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 2})

				path := []order.Status{order.StatusPaid, order.StatusShipped, order.StatusCompleted}
				if terminal == order.StatusCancelled {
					path = []order.Status{order.StatusCancelled}
				}
				for _, s := range path {
					_, err := f.svc.UpdateStatus(ctx, f.admin, o.ID, s)
					require.NoError(t, err)
				}
				before := f.quantity(t, p)

				_, err := f.svc.UpdateStatus(ctx, f.admin, o.ID, next)
				assert.True(t, failure.Is(err, failure.KindInvalidTransition), "got %v", err)
				assert.Contains(t, failure.ResultOf(err).Error, "is already "+string(terminal))
				assert.Equal(t, before, f.quantity(t, p))
			})
		}
	}
}

func TestUpdateStatus_CancelRestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 3})

	got, err := f.svc.UpdateStatus(ctx, f.admin, o.ID, order.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, int64(5), f.quantity(t, p))
	assert.Equal(t, []order.EventType{order.EventCreated, order.EventCancelled}, f.events.types())
}

func TestUpdateStatus_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	_, err := f.svc.UpdateStatus(ctx, f.customer, o.ID, order.StatusPaid)
	assert.True(t, failure.Is(err, failure.KindForbidden))

	_, err = f.svc.UpdateStatus(ctx, f.admin, o.ID, order.Status("Lost"))
	assert.True(t, failure.Is(err, failure.KindInvalid))

	_, err = f.svc.UpdateStatus(ctx, f.admin, o.ID, order.StatusShipped)
	assert.True(t, failure.Is(err, failure.KindInvalidTransition))

	_, err = f.svc.UpdateStatus(ctx, f.admin, 9999, order.StatusPaid)
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

// --- Payment machine ---

func TestUpdatePaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	got, err := f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, order.StatusPending, got.Status)

	got, err = f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentRefunded, got.PaymentStatus)

	_, err = f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentPaid)
	assert.True(t, failure.Is(err, failure.KindInvalidTransition))

	assert.Equal(t, []order.EventType{
		order.EventCreated,
		order.EventPaymentChanged,
		order.EventPaymentChanged,
	}, f.events.types())
}

func TestUpdatePaymentStatus_CancelledOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	_, err := f.svc.Cancel(ctx, f.customer, o.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentPaid)
	assert.True(t, failure.Is(err, failure.KindInvalidTransition))

	got, err := f.svc.GetOrder(ctx, f.admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.PaymentUnpaid, got.PaymentStatus)
}

func TestUpdatePaymentStatus_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	_, err := f.svc.UpdatePaymentStatus(ctx, f.customer, o.ID, order.PaymentPaid)
	assert.True(t, failure.Is(err, failure.KindForbidden))

	_, err = f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentStatus("Chargeback"))
	assert.True(t, failure.Is(err, failure.KindInvalid))

	_, err = f.svc.UpdatePaymentStatus(ctx, f.admin, o.ID, order.PaymentRefunded)
	assert.True(t, failure.Is(err, failure.KindInvalidTransition))
}

// --- Reads ---

func TestGetOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "2.00", 5)
	o := f.create(t, f.customer, order.ItemRequest{ProductID: p, Quantity: 1})

	got, err := f.svc.GetOrder(ctx, f.customer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = f.svc.GetOrder(ctx, f.admin, o.ID)
	require.NoError(t, err)

	_, err = f.svc.GetOrder(ctx, f.other, o.ID)
	assert.True(t, failure.Is(err, failure.KindForbidden))

	_, err = f.svc.GetOrder(ctx, f.admin, 9999)
	assert.True(t, failure.Is(err, failure.KindNotFound))
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "1.00", 100)

	var mine []int64
	for i := 0; i < 12; i++ {
		actor := f.customer
		if i%3 == 0 {
			actor = f.other
		}
		o := f.create(t, actor, order.ItemRequest{ProductID: p, Quantity: 1})
		if actor == f.customer {
			mine = append(mine, o.ID)
		}
	}

	page, err := f.svc.MyOrders(ctx, f.customer, 1, 5)
	require.NoError(t, err)
	assert.Equal(t, len(mine), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	require.Equal(t, 5, page.CurrentPageItems())
	assert.Equal(t, mine[len(mine)-1], page.Items[0].ID)
	for _, o := range page.Items {
		assert.Equal(t, f.customer.UserID, o.CustomerID)
	}

	page, err = f.svc.MyOrders(ctx, f.customer, 50, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.CurrentPageItems())

	all, err := f.svc.Orders(ctx, f.admin, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 12, all.TotalItems)

	_, err = f.svc.Orders(ctx, f.customer, 1, 10)
	assert.True(t, failure.Is(err, failure.KindForbidden))

	_, err = f.svc.MyOrders(ctx, f.customer, 1, 0)
	assert.True(t, failure.Is(err, failure.KindInvalid))
}
