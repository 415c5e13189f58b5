package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/shop-ledger/internal/domain/auth"
	"github.com/xenking/shop-ledger/internal/domain/failure"
	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/pagination"
)

// actorOf returns the authenticated actor or writes a 401.
func actorOf(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, failure.Result{
			Error: "missing or invalid api key",
			Kind:  failure.KindForbidden,
		})
	}
	return actor, ok
}

// AddEntry handles POST /inventory/entries.
func (h *Handler) AddEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}

	var productID, amount int64
	err := decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		switch key {
		case "product_id":
			productID, err = d.Int64()
		case "amount":
			amount, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if productID <= 0 {
		writeError(w, r, failure.Invalid("product_id is required"))
		return
	}

	entry, err := h.inventory.AddEntry(r.Context(), actor, productID, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, func(e *jx.Encoder) { encodeEntry(e, entry) })
}

// GetEntry handles GET /inventory/entries/{id}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.inventory.GetEntry(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeEntry(e, entry) })
}

// AmendEntry handles PATCH /inventory/entries/{id}.
func (h *Handler) AmendEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var amount int64
	err = decodeBody(r, func(d *jx.Decoder, key string) (err error) {
		if key == "amount" {
			amount, err = d.Int64()
			return err
		}
		return d.Skip()
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := h.inventory.AmendEntry(r.Context(), actor, id, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodeEntry(e, entry) })
}

// RemoveEntry handles DELETE /inventory/entries/{id}?reverse=bool. The
// entry's effect is reversed unless reverse=false is given.
func (h *Handler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reverse := true
	switch v := r.URL.Query().Get("reverse"); v {
	case "", "true", "1":
	case "false", "0":
		reverse = false
	default:
		writeError(w, r, failure.Invalid("invalid reverse %q", v))
		return
	}

	if err := h.inventory.RemoveEntry(r.Context(), actor, id, reverse); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(id)
		e.FieldStart("reversed")
		e.Bool(reverse)
		e.ObjEnd()
	})
}

// ListProductEntries handles GET /products/{id}/entries.
func (h *Handler) ListProductEntries(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, h.inventory.ListByProduct)
}

// ListActorEntries handles GET /users/{id}/entries.
func (h *Handler) ListActorEntries(w http.ResponseWriter, r *http.Request) {
	h.listEntries(w, r, h.inventory.ListByActor)
}

type entryLister func(ctx context.Context, actor auth.Actor, id int64, page, pageSize int) (pagination.Page[inventory.Entry], error)

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request, list entryLister) {
	actor, ok := actorOf(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, limit, err := pageParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := list(r.Context(), actor, id, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, func(e *jx.Encoder) { encodePage(e, p, encodeEntry) })
}
