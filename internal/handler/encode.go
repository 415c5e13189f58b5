package handler

import (
	"time"

	"github.com/go-faster/jx"

	"github.com/xenking/shop-ledger/internal/domain/inventory"
	"github.com/xenking/shop-ledger/internal/domain/order"
	"github.com/xenking/shop-ledger/internal/domain/pagination"
)

func encodeEntry(e *jx.Encoder, entry *inventory.Entry) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(entry.ID)
	e.FieldStart("product_id")
	e.Int64(entry.ProductID)
	e.FieldStart("actor_id")
	e.Int64(entry.ActorID)
	e.FieldStart("amount")
	e.Int64(entry.Amount)
	e.FieldStart("created_at")
	e.Str(entry.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
}

// Money is encoded as a decimal string.
func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("customer_id")
	e.Int64(o.CustomerID)
	e.FieldStart("items")
	e.ArrStart()
	for _, l := range o.Items {
		e.ObjStart()
		e.FieldStart("product_id")
		e.Int64(l.ProductID)
		e.FieldStart("quantity")
		e.Int64(l.Quantity)
		e.FieldStart("unit_price")
		e.Str(l.UnitPrice.String())
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("total")
	e.Str(o.Total.String())
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("payment_status")
	e.Str(string(o.PaymentStatus))
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
}

func encodePage[T any](e *jx.Encoder, p pagination.Page[T], item func(e *jx.Encoder, v *T)) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for i := range p.Items {
		item(e, &p.Items[i])
	}
	e.ArrEnd()
	e.FieldStart("limit")
	e.Int(p.Limit)
	e.FieldStart("total_pages")
	e.Int(p.TotalPages)
	e.FieldStart("total_items")
	e.Int(p.TotalItems)
	e.FieldStart("current_page")
	e.Int(p.CurrentPage)
	e.FieldStart("current_page_items")
	e.Int(p.CurrentPageItems())
	e.ObjEnd()
}
