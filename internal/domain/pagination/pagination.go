// Package pagination computes deterministic page windows for listings.
//
// Out-of-range page requests are not rejected: a page past the end is
// clamped down to the last page, so callers always receive the final page
// instead of an empty one.
package pagination

import "github.com/xenking/shop-ledger/internal/domain/failure"

// MaxPageSize is the largest page a listing may request.
const MaxPageSize = 1000

// Window describes which slice of a listing to read.
type Window struct {
	ClampedPage int
	TotalPages  int
	Skip        int
	Limit       int
}

// Paginate computes the window for requestedPage over totalCount rows.
//
// TotalPages is ceil(totalCount/pageSize). A requested page above TotalPages
// is clamped to TotalPages and Skip is (ClampedPage-1)*pageSize. An
// empty listing yields page 1 with zero skip.
func Paginate(totalCount, requestedPage, pageSize int) (Window, error) {
	if pageSize <= 0 {
		return Window{}, failure.Invalid("page size must be greater than 0")
	}
	if pageSize > MaxPageSize {
		return Window{}, failure.Invalid("page size must not exceed %d", MaxPageSize)
	}
	if requestedPage < 1 {
		return Window{}, failure.Invalid("page must be greater than 0")
	}
	if totalCount < 0 {
		totalCount = 0
	}

	totalPages := totalCount / pageSize
	if totalCount%pageSize != 0 {
		totalPages++
	}
	page := requestedPage
	if page > totalPages {
		page = totalPages
	}
	if page == 0 {
		return Window{ClampedPage: 1, TotalPages: 0, Skip: 0, Limit: pageSize}, nil
	}

	return Window{
		ClampedPage: page,
		TotalPages:  totalPages,
		Skip:        (page - 1) * pageSize,
		Limit:       pageSize,
	}, nil
}

// Page is one page of a listing.
type Page[T any] struct {
	Items       []T
	Limit       int
	TotalPages  int
	TotalItems  int
	CurrentPage int
}

// NewPage assembles a Page from a window, the listing size and the rows read.
func NewPage[T any](w Window, totalItems int, items []T) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:       items,
		Limit:       w.Limit,
		TotalPages:  w.TotalPages,
		TotalItems:  totalItems,
		CurrentPage: w.ClampedPage,
	}
}

// CurrentPageItems returns the number of rows on this page.
func (p Page[T]) CurrentPageItems() int {
	return len(p.Items)
}
