package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/failure"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/pagination"
)

// IdempotencyKeyHeader deduplicates order submissions per actor.
const IdempotencyKeyHeader = "Idempotency-Key"

// CreateOrder handles POST /orders. A repeated Idempotency-Key is rejected
// as Invalid; Conflict stays reserved for stock shortfalls.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	var items []order.ItemRequest
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var item order.ItemRequest
			if err := d.Obj(func(d *jx.Decoder, key string) (err error) {
				switch key {
				case "product_id", "productId":
					item.ProductID, err = d.Int64()
				case "quantity":
					item.Quantity, err = d.Int64()
				default:
					err = d.Skip()
				}
				return err
			}); err != nil {
				return err
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if key := r.Header.Get(IdempotencyKeyHeader); key != "" && h.idempotency != nil {
		claimed, cerr := h.idempotency.Claim(ctx, actor.UserID, key)
		if cerr != nil {
			writeError(w, r, cerr)
			return
		}
		if !claimed {
			writeError(w, r, failure.Invalid("order with idempotency key %q already submitted", key))
			return
		}
		defer func() {
			if err == nil {
				return
			}
			// Let the client retry a failed submission with the same key.
			if rerr := h.idempotency.Release(context.WithoutCancel(ctx), actor.UserID, key); rerr != nil {
				zctx.From(ctx).Warn("Release idempotency key", zap.Error(rerr))
			}
		}()
	}

	var o *order.Order
	o, err = h.orders.Create(ctx, actor, items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// ListOrders handles GET /orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.orders.Orders)
}

// MyOrders handles GET /orders/mine.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.orders.MyOrders)
}

type orderLister func(ctx context.Context, actor auth.Actor, page, pageSize int) (pagination.Page[order.Order], error)

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, list orderLister) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := list(r.Context(), actor, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, p, encodeOrder) })
}

// GetOrder handles GET /orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.GetOrder)
}

// CancelOrder handles POST /orders/{id}/cancel.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.orders.Cancel)
}

// UpdateOrderStatus handles PUT /orders/{id}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(ctx context.Context, actor auth.Actor, id int64) (*order.Order, error) {
		status, err := decodeString(r, "status")
		if err != nil {
			return nil, err
		}
		return h.orders.UpdateStatus(ctx, actor, id, order.Status(status))
	})
}

// UpdatePaymentStatus handles PUT /orders/{id}/payment.
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(ctx context.Context, actor auth.Actor, id int64) (*order.Order, error) {
		status, err := decodeString(r, "payment_status")
		if err != nil {
			return nil, err
		}
		return h.orders.UpdatePaymentStatus(ctx, actor, id, order.PaymentStatus(status))
	})
}

func (h *Handler) orderAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, actor auth.Actor, id int64) (*order.Order, error),
) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := action(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

// decodeString reads a single required string field from the body.
func decodeString(r *http.Request, field string) (string, error) {
	var v string
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		if key == field {
			v, err = d.Str()
			return err
		}
		return d.Skip()
	})
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", failure.Invalid("%s is required", field)
	}
	return v, nil
}
