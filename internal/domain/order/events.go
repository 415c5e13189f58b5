package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// EventType names an order lifecycle event.
type EventType string

const (
	EventCreated        EventType = "order.created"
	EventCancelled      EventType = "order.cancelled"
	EventStatusChanged  EventType = "order.status_changed"
	EventPaymentChanged EventType = "order.payment_changed"
)

// Event describes a committed order change.
type Event struct {
	Type          EventType
	OrderID       int64
	CustomerID    int64
	ActorID       int64
	Status        Status
	PaymentStatus PaymentStatus
	Total         decimal.Decimal
	OccurredAt    time.Time
}

func newEvent(typ EventType, o *Order, actorID int64, now time.Time) Event {
	return Event{
		Type:          typ,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		ActorID:       actorID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Total:         o.Total,
		OccurredAt:    now,
	}
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, Event) error { return nil }
