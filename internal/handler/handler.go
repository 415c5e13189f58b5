// Package handler exposes the ledger and order services over HTTP.
//
// Responses use one envelope: {"ok":true,"data":...} on success and
// {"ok":false,"error":"...","kind":"..."} on failure.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shop-ledger/internal/domain/failure"
	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/pagination"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
)

// IdempotencyGuard remembers idempotency keys of order submissions.
type IdempotencyGuard interface {
	Claim(ctx context.Context, actorID int64, key string) (bool, error)
	Release(ctx context.Context, actorID int64, key string) error
}

// Handler serves the inventory and order endpoints.
type Handler struct {
	inventory   *inventory.Service
	orders      *order.Service
	idempotency IdempotencyGuard
}

// NewHandler constructs a Handler. idempotency may be nil, in which case the
// Idempotency-Key header is ignored.
func NewHandler(inv *inventory.Service, orders *order.Service, idempotency IdempotencyGuard) *Handler {
	return &Handler{
		inventory:   inv,
		orders:      orders,
		idempotency: idempotency,
	}
}

// Register mounts the API routes on r. Every route requires an
// authenticated actor in the request context.
func (h *Handler) Register(r chi.Router) {
	r.Route("/inventory/entries", func(r chi.Router) {
		r.Post("/", h.AddEntry)
		r.Get("/{id}", h.GetEntry)
		r.Patch("/{id}", h.AmendEntry)
		r.Delete("/{id}", h.RemoveEntry)
	})
	r.Get("/products/{id}/entries", h.ListProductEntries)
	r.Get("/users/{id}/entries", h.ListActorEntries)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/mine", h.MyOrders)
		r.Get("/{id}", h.GetOrder)
		r.Post("/{id}/cancel", h.CancelOrder)
		r.Put("/{id}/status", h.UpdateOrderStatus)
		r.Put("/{id}/payment", h.UpdatePaymentStatus)
	})
}

func statusOf(kind failure.Kind) int {
	switch kind {
	case failure.KindNotFound:
		return http.StatusNotFound
	case failure.KindInvalid:
		return http.StatusBadRequest
	case failure.KindConflict:
		return http.StatusConflict
	case failure.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case failure.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeData writes a success envelope whose data is produced by encode.
func writeData(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.FieldStart("data")
	encode(&e)
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

// writeError writes the failure envelope for err. Internal faults are logged
// here and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := failure.ResultOf(err)
	status := statusOf(res.Kind)
	if res.Kind == failure.KindInternal {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	} else {
		zctx.From(r.Context()).Debug("Request rejected",
			zap.String("kind", string(res.Kind)),
			zap.Error(err),
		)
	}
	writeFailure(w, status, res)
}

func writeFailure(w http.ResponseWriter, status int, res failure.Result) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(false)
	e.FieldStart("error")
	e.Str(res.Error)
	e.FieldStart("kind")
	e.Str(string(res.Kind))
	e.ObjEnd()
	writeJSON(w, status, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func pathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, failure.Invalid("invalid id %q", raw)
	}
	return id, nil
}

// pageParams reads page and limit from the query string.
func pageParams(r *http.Request) (page, limit int, err error) {
	page, limit = defaultPage, defaultPageSize
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil {
			return 0, 0, failure.Invalid("invalid page %q", v)
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			return 0, 0, failure.Invalid("invalid limit %q", v)
		}
		if limit > pagination.MaxPageSize {
			return 0, 0, failure.Invalid("limit must not exceed %d", pagination.MaxPageSize)
		}
	}
	return page, limit, nil
}

// decodeBody decodes a JSON object body field by field.
func decodeBody(r *http.Request, field func(d *jx.Decoder, key string) error) error {
	d := jx.Decode(r.Body, 4096)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return field(d, string(key))
	}); err != nil {
		if failure.KindOf(err) != failure.KindInternal {
			return err
		}
		return failure.Invalid("malformed request body: %s", err.Error())
	}
	return nil
}
