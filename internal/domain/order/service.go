package order

import (
	"cmp"
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/failure"
	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/pagination"
	"github.com/xenking/shop-ledger/internal/domain/product"
)

// Service drives orders through their lifecycle. Every stock movement goes
// through the inventory service inside the same transaction as the order
// state change.
type Service struct {
	catalog   product.Catalog
	inventory *inventory.Service
	orders    Repository
	publisher Publisher
	tracer    trace.Tracer
	metrics   *metrics
	opts      options
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	catalog product.Catalog,
	inv *inventory.Service,
	orders Repository,
	opts ...Option,
) (*Service, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	m, err := newMetrics(o.meterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "init metrics")
	}

	return &Service{
		catalog:   catalog,
		inventory: inv,
		orders:    orders,
		publisher: o.publisher,
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		metrics:   m,
		opts:      o,
	}, nil
}

// Create places an order for actor. Prices are snapshotted from the catalog,
// then every line consumes stock and the order is stored in one transaction:
// if any line lacks stock nothing is written.
func (s *Service) Create(ctx context.Context, actor auth.Actor, items []ItemRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(attribute.Int("order.items", len(items))),
	)
	defer func() { endSpan(span, rerr) }()

	if len(items) == 0 {
		return nil, failure.Invalid("items required")
	}

	lines := make([]Line, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, failure.Invalid("quantity must be greater than 0 for product %d", item.ProductID)
		}
		p, err := s.catalog.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, failure.NotFound("product %d not found", item.ProductID)
			}
			return nil, errors.Wrap(err, "get product")
		}
		line := Line{
			ProductID: p.ID,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}

	o := &Order{
		CustomerID:    actor.UserID,
		Items:         lines,
		Total:         total,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
	}

	err := s.orders.InTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, l := range lockOrder(o.Items) {
			if _, err := s.inventory.AppendTx(ctx, tx, l.ProductID, -l.Quantity, actor.UserID); err != nil {
				return err
			}
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		return nil
	})
	if err != nil {
		if failure.Is(err, failure.KindConflict) {
			s.metrics.conflicts.Add(ctx, 1)
		}
		zctx.From(ctx).Debug("Order rejected",
			zap.Int64("customer_id", actor.UserID),
			zap.String("kind", string(failure.KindOf(err))),
			zap.Error(err),
		)
		return nil, errors.Wrap(err, "create order")
	}

	s.metrics.created.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("order.id", o.ID))
	zctx.From(ctx).Info("Order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", o.CustomerID),
		zap.String("total", o.Total.String()),
	)
	s.publish(ctx, newEvent(EventCreated, o, actor.UserID, s.opts.now()))

	return o, nil
}

// Cancel cancels an order owned by actor, or any order when actor is an
// administrator, and puts its stock back. Only Pending and Paid orders can be
// cancelled. Payment status is left unchanged.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, orderID int64) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Cancel",
		trace.WithAttributes(attribute.Int64("order.id", orderID)),
	)
	defer func() { endSpan(span, rerr) }()

	o, err := s.mutate(ctx, orderID, func(ctx context.Context, tx Tx, o *Order) error {
		if !actor.CanAccess(o.CustomerID) {
			return failure.Forbidden("order %d belongs to another user", orderID)
		}
		if o.Status.Terminal() {
			return failure.InvalidTransition("order %d is already %s", orderID, o.Status)
		}
		if !o.Status.CanTransitionTo(StatusCancelled) {
			return failure.InvalidTransition("order %d cannot be cancelled from %s", orderID, o.Status)
		}
		if err := s.restock(ctx, tx, o, actor.UserID); err != nil {
			return err
		}
		o.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cancel order")
	}

	s.metrics.cancelled.Add(ctx, 1)
	zctx.From(ctx).Info("Order cancelled",
		zap.Int64("order_id", o.ID),
		zap.Int64("actor_id", actor.UserID),
	)
	s.publish(ctx, newEvent(EventCancelled, o, actor.UserID, s.opts.now()))

	return o, nil
}

// UpdateStatus moves an order to next. Restricted to administrators. Moving
// to Cancelled restores stock exactly like Cancel.
func (s *Service) UpdateStatus(ctx context.Context, actor auth.Actor, orderID int64, next Status) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.status", string(next)),
		),
	)
	defer func() { endSpan(span, rerr) }()

	if !actor.IsAdmin() {
		return nil, failure.Forbidden("only administrators can update order status")
	}
	if !next.Valid() {
		return nil, failure.Invalid("unknown order status %q", next)
	}

	o, err := s.mutate(ctx, orderID, func(ctx context.Context, tx Tx, o *Order) error {
		if o.Status.Terminal() {
			return failure.InvalidTransition("order %d is already %s", orderID, o.Status)
		}
		if !o.Status.CanTransitionTo(next) {
			return failure.InvalidTransition("order %d cannot move from %s to %s", orderID, o.Status, next)
		}
		if next == StatusCancelled {
			if err := s.restock(ctx, tx, o, actor.UserID); err != nil {
				return err
			}
		}
		o.Status = next
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	typ := EventStatusChanged
	if next == StatusCancelled {
		typ = EventCancelled
		s.metrics.cancelled.Add(ctx, 1)
	}
	zctx.From(ctx).Info("Order status updated",
		zap.Int64("order_id", o.ID),
		zap.String("status", string(o.Status)),
	)
	s.publish(ctx, newEvent(typ, o, actor.UserID, s.opts.now()))

	return o, nil
}

// UpdatePaymentStatus moves an order's payment to next. Restricted to
// administrators. A cancelled order cannot be marked paid.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor auth.Actor, orderID int64, next PaymentStatus) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdatePaymentStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.payment_status", string(next)),
		),
	)
	defer func() { endSpan(span, rerr) }()

	if !actor.IsAdmin() {
		return nil, failure.Forbidden("only administrators can update payment status")
	}
	if !next.Valid() {
		return nil, failure.Invalid("unknown payment status %q", next)
	}

	o, err := s.mutate(ctx, orderID, func(_ context.Context, _ Tx, o *Order) error {
		if next == PaymentPaid && o.Status == StatusCancelled {
			return failure.InvalidTransition("order %d is cancelled and cannot be paid", orderID)
		}
		if !o.PaymentStatus.CanTransitionTo(next) {
			return failure.InvalidTransition("order %d payment cannot move from %s to %s", orderID, o.PaymentStatus, next)
		}
		o.PaymentStatus = next
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "update payment status")
	}

	zctx.From(ctx).Info("Order payment updated",
		zap.Int64("order_id", o.ID),
		zap.String("payment_status", string(o.PaymentStatus)),
	)
	s.publish(ctx, newEvent(EventPaymentChanged, o, actor.UserID, s.opts.now()))

	return o, nil
}

// GetOrder returns an order to its owner or to an administrator.
func (s *Service) GetOrder(ctx context.Context, actor auth.Actor, orderID int64) (*Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, failure.NotFound("order %d not found", orderID)
		}
		return nil, errors.Wrap(err, "get order")
	}
	if !actor.CanAccess(o.CustomerID) {
		return nil, failure.Forbidden("order %d belongs to another user", orderID)
	}
	return o, nil
}

// MyOrders pages through actor's own orders, newest first.
func (s *Service) MyOrders(ctx context.Context, actor auth.Actor, page, pageSize int) (pagination.Page[Order], error) {
	return s.list(ctx, Filter{CustomerID: actor.UserID}, page, pageSize)
}

// Orders pages through every order, newest first. Restricted to
// administrators.
func (s *Service) Orders(ctx context.Context, actor auth.Actor, page, pageSize int) (pagination.Page[Order], error) {
	if !actor.IsAdmin() {
		return pagination.Page[Order]{}, failure.Forbidden("only administrators can list all orders")
	}
	return s.list(ctx, Filter{}, page, pageSize)
}

func (s *Service) list(ctx context.Context, f Filter, page, pageSize int) (pagination.Page[Order], error) {
	total, err := s.orders.Count(ctx, f)
	if err != nil {
		return pagination.Page[Order]{}, errors.Wrap(err, "count orders")
	}
	w, err := pagination.Paginate(total, page, pageSize)
	if err != nil {
		return pagination.Page[Order]{}, err
	}
	items, err := s.orders.List(ctx, f, w.Limit, w.Skip)
	if err != nil {
		return pagination.Page[Order]{}, errors.Wrap(err, "list orders")
	}
	return pagination.NewPage(w, total, items), nil
}

// mutate locks the order, applies fn and writes the resulting state in one
// transaction. The status check inside fn happens under the row lock, so of
// two racing transitions only one observes the original state.
func (s *Service) mutate(ctx context.Context, orderID int64, fn func(ctx context.Context, tx Tx, o *Order) error) (*Order, error) {
	var result *Order
	err := s.orders.InTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return failure.NotFound("order %d not found", orderID)
			}
			return errors.Wrap(err, "lock order")
		}
		if err := fn(ctx, tx, o); err != nil {
			return err
		}
		if err := tx.UpdateOrderState(ctx, o.ID, o.Status, o.PaymentStatus); err != nil {
			return errors.Wrap(err, "update order state")
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// restock records a compensating entry for every line of o.
func (s *Service) restock(ctx context.Context, tx Tx, o *Order, actorID int64) error {
	for _, l := range lockOrder(o.Items) {
		if _, err := s.inventory.AppendTx(ctx, tx, l.ProductID, l.Quantity, actorID); err != nil {
			return err
		}
	}
	return nil
}

// lockOrder returns lines sorted by product id. Stock rows are always locked
// in this order so two multi-line orders cannot wait on each other.
func lockOrder(lines []Line) []Line {
	return slices.SortedStableFunc(slices.Values(lines), func(a, b Line) int {
		return cmp.Compare(a.ProductID, b.ProductID)
	})
}

// publish delivers e after commit. Delivery failures are logged and never
// undo the committed change.
func (s *Service) publish(ctx context.Context, e Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		zctx.From(ctx).Warn("Publish order event",
			zap.String("type", string(e.Type)),
			zap.Int64("order_id", e.OrderID),
			zap.Error(err),
		)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		kind := failure.KindOf(err)
		span.SetAttributes(attribute.String("failure.kind", string(kind)))
		if kind == failure.KindInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}
	span.End()
}
