package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/shop-ledger/internal/domain/order"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent() order.Event {
	return order.Event{
		Type:          order.EventCancelled,
		OrderID:       42,
		CustomerID:    7,
		ActorID:       1,
		Status:        order.StatusCancelled,
		PaymentStatus: order.PaymentPaid,
		Total:         decimal.RequireFromString("19.90"),
		OccurredAt:    time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Publisher{w: w}

	require.NoError(t, p.Publish(context.Background(), testEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "order.cancelled", string(msg.Headers[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &Publisher{w: w}

	err := p.Publish(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.cancelled")
}

func TestEncodeEvent(t *testing.T) {
	got := map[string]string{}
	var orderID int64

	d := jx.DecodeBytes(EncodeEvent(testEvent()))
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key == "order_id" {
			v, err := d.Int64()
			orderID = v
			return err
		}
		if d.Next() == jx.Number {
			return d.Skip()
		}
		v, err := d.Str()
		got[key] = v
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), orderID)
	assert.Equal(t, "order.cancelled", got["type"])
	assert.Equal(t, "Cancelled", got["status"])
	assert.Equal(t, "Paid", got["payment_status"])
	assert.Equal(t, "19.9", got["total"])
	assert.Equal(t, "2024-05-01T10:30:00Z", got["occurred_at"])
}
