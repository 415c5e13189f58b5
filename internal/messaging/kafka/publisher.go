// Package kafka publishes order lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/segmentio/kafka-go"

	"github.com/xenking/shop-ledger/internal/domain/order"
)

// DefaultTopic receives order events when no topic is configured.
const DefaultTopic = "shop.orders"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements order.Publisher with a single long-lived writer.
// Messages are keyed by order id so events of one order stay in one
// partition and keep their order.
type Publisher struct {
	w messageWriter
}

var _ order.Publisher = (*Publisher)(nil)

// NewPublisher creates a Publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish writes e to the topic.
func (p *Publisher) Publish(ctx context.Context, e order.Event) error {
	err := p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.OrderID, 10)),
		Value: EncodeEvent(e),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
		Time: e.OccurredAt,
	})
	if err != nil {
		return errors.Wrapf(err, "publish %s", e.Type)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

// EncodeEvent renders e as a JSON object.
func EncodeEvent(e order.Event) []byte {
	var enc jx.Encoder
	enc.ObjStart()
	enc.FieldStart("type")
	enc.Str(string(e.Type))
	enc.FieldStart("order_id")
	enc.Int64(e.OrderID)
	enc.FieldStart("customer_id")
	enc.Int64(e.CustomerID)
	enc.FieldStart("actor_id")
	enc.Int64(e.ActorID)
	enc.FieldStart("status")
	enc.Str(string(e.Status))
	enc.FieldStart("payment_status")
	enc.Str(string(e.PaymentStatus))
	enc.FieldStart("total")
	enc.Str(e.Total.String())
	enc.FieldStart("occurred_at")
	enc.Str(e.OccurredAt.UTC().Format(time.RFC3339Nano))
	enc.ObjEnd()
	return enc.Bytes()
}
