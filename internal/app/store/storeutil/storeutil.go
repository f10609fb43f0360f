// internal/app/store/storeutil/storeutil.go
package storeutil

import (
	"math"

	"go.mongodb.org/mongo-driver/mongo/options"
)

// Paging defaults used when the caller supplies none.
const (
	DefaultLimit int64 = 20
	MaxLimit     int64 = 100
)

// Paginate returns *options.FindOptions with skip/limit given a 1-based page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultLimit
	}
	page = clampPage(page, limit)
	sk := (page - 1) * limit
	return options.Find().SetLimit(limit).SetSkip(sk)
}

// Page is a normalized 1-based page request.
type Page struct {
	Page  int64
	Limit int64
}

// NewPage clamps page and limit: page defaults to 1, limit to def (or
// DefaultLimit when def is 0) and is capped at max (or MaxLimit).
func NewPage(page, limit, def, max int64) Page {
	if def <= 0 {
		def = DefaultLimit
	}
	if max <= 0 {
		max = MaxLimit
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return Page{Page: clampPage(page, limit), Limit: limit}
}

// clampPage keeps page at least 1 and small enough that (page-1)*limit
// fits in an int64. limit must be positive.
func clampPage(page, limit int64) int64 {
	if page <= 0 {
		return 1
	}
	if last := math.MaxInt64/limit + 1; page > last {
		return last
	}
	return page
}

// FindOptions returns skip/limit options for the page.
func (p Page) FindOptions() *options.FindOptions {
	return Paginate(p.Limit, p.Page)
}

// Pagination is the page metadata returned alongside list results.
type Pagination struct {
	CurrentPage int64 `json:"current_page"`
	Limit       int64 `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Meta builds the pagination metadata for a page given the total match count.
func (p Page) Meta(total int64) Pagination {
	pages := int64(0)
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		CurrentPage: p.Page,
		Limit:       p.Limit,
		Total:       total,
		TotalPages:  pages,
		HasNext:     p.Page < pages,
		HasPrev:     p.Page > 1,
	}
}
