package order

import (
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationName = "github.com/xenking/shop-ledger/internal/domain/order"

// Option configures a Service.
type Option func(*options)

type options struct {
	publisher      Publisher
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	now            func() time.Time
}

// WithPublisher sets the destination of order events.
func WithPublisher(p Publisher) Option {
	return func(o *options) {
		if p != nil {
			o.publisher = p
		}
	}
}

// WithTracerProvider sets the tracer provider for service spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the meter provider for order counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func defaultOptions() options {
	return options{
		publisher:      nopPublisher{},
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
		now:            time.Now,
	}
}

type metrics struct {
	created   metric.Int64Counter
	cancelled metric.Int64Counter
	conflicts metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(instrumentationName)

	created, err := meter.Int64Counter("shop.orders.created",
		metric.WithDescription("Orders successfully created"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	cancelled, err := meter.Int64Counter("shop.orders.cancelled",
		metric.WithDescription("Orders cancelled with stock restored"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders cancelled counter")
	}
	conflicts, err := meter.Int64Counter("shop.orders.stock_conflicts",
		metric.WithDescription("Order creations rejected for insufficient stock"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "stock conflicts counter")
	}

	return &metrics{
		created:   created,
		cancelled: cancelled,
		conflicts: conflicts,
	}, nil
}
