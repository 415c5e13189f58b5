package memory

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/product"
)

func TestStore_RollbackRestoresState(t *testing.T) {
	s := New()
	p := s.AddProduct(product.Product{Title: "Widget", Quantity: 0})
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := s.Ledger().InTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		_, err := tx.AdjustQuantity(ctx, p.ID, 10)
		require.NoError(t, err)
		require.NoError(t, tx.InsertEntry(ctx, &inventory.Entry{ProductID: p.ID, ActorID: 1, Amount: 10}))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	got, err := s.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Quantity)
	assert.Zero(t, s.LedgerSum(p.ID))

	n, err := s.Ledger().CountByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_CancelledContextRollsBack(t *testing.T) {
	s := New()
	p := s.AddProduct(product.Product{Title: "Widget", Quantity: 5})
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Orders().InTx(ctx, func(ctx context.Context, tx order.Tx) error {
		_, err := tx.AdjustQuantity(ctx, p.ID, -3)
		require.NoError(t, err)
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	got, err := s.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)
}

func TestTxn_AdjustQuantity(t *testing.T) {
	s := New()
	p := s.AddProduct(product.Product{Title: "Widget", Quantity: 2})
	ctx := context.Background()

	err := s.Ledger().InTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		_, err := tx.AdjustQuantity(ctx, p.ID, -3)
		assert.ErrorIs(t, err, inventory.ErrNegativeQuantity)

		_, err = tx.AdjustQuantity(ctx, p.ID+100, 1)
		assert.ErrorIs(t, err, product.ErrNotFound)

		q, err := tx.AdjustQuantity(ctx, p.ID, -2)
		require.NoError(t, err)
		assert.Zero(t, q)
		return nil
	})
	require.NoError(t, err)
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Orders().InTx(ctx, func(ctx context.Context, tx order.Tx) error {
		for _, customer := range []int64{1, 2, 1, 1} {
			if err := tx.InsertOrder(ctx, &order.Order{CustomerID: customer, Status: order.StatusPending}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	n, err := s.Orders().Count(ctx, order.Filter{CustomerID: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	list, err := s.Orders().List(ctx, order.Filter{CustomerID: 1}, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(4), list[0].ID)
	assert.Equal(t, int64(3), list[1].ID)

	list, err = s.Orders().List(ctx, order.Filter{}, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
