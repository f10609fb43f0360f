package storeutil

import (
	"math"
	"testing"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		limit     int64
		page      int64
		wantLimit int64
		wantSkip  int64
	}{
		{"defaults", 0, 0, DefaultLimit, 0},
		{"first page", 10, 1, 10, 0},
		{"third page", 10, 3, 10, 20},
		{"negative page", 5, -2, 5, 0},
		{"huge page", 100, math.MaxInt64, 100, math.MaxInt64 / 100 * 100},
		{"huge page default limit", 0, math.MaxInt64 / 2, DefaultLimit, math.MaxInt64 / DefaultLimit * DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Paginate(tt.limit, tt.page)
			if opts.Limit == nil || *opts.Limit != tt.wantLimit {
				t.Errorf("limit = %v, want %d", opts.Limit, tt.wantLimit)
			}
			if opts.Skip == nil || *opts.Skip != tt.wantSkip {
				t.Errorf("skip = %v, want %d", opts.Skip, tt.wantSkip)
			}
		})
	}
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name              string
		page, limit       int64
		def, max          int64
		wantPage, wantLim int64
	}{
		{"zero values", 0, 0, 0, 0, 1, DefaultLimit},
		{"custom default", 0, 0, 10, 50, 1, 10},
		{"capped", 2, 500, 10, 50, 2, 50},
		{"within range", 4, 25, 10, 50, 4, 25},
		{"huge page", math.MaxInt64, 100, 20, 100, math.MaxInt64/100 + 1, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.page, tt.limit, tt.def, tt.max)
			if p.Page != tt.wantPage || p.Limit != tt.wantLim {
				t.Errorf("NewPage() = %+v, want page=%d limit=%d", p, tt.wantPage, tt.wantLim)
			}
			if sk := p.FindOptions().Skip; sk == nil || *sk < 0 {
				t.Errorf("skip = %v, want non-negative", sk)
			}
		})
	}
}

func TestPage_Meta(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		total     int64
		wantPages int64
		wantNext  bool
		wantPrev  bool
	}{
		{"empty", Page{Page: 1, Limit: 10}, 0, 0, false, false},
		{"single page", Page{Page: 1, Limit: 10}, 7, 1, false, false},
		{"exact fit", Page{Page: 1, Limit: 10}, 20, 2, true, false},
		{"middle page", Page{Page: 2, Limit: 10}, 25, 3, true, true},
		{"last page", Page{Page: 3, Limit: 10}, 25, 3, false, true},
		{"past the end", Page{Page: 5, Limit: 10}, 25, 3, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.page.Meta(tt.total)
			if m.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", m.TotalPages, tt.wantPages)
			}
			if m.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", m.HasNext, tt.wantNext)
			}
			if m.HasPrev != tt.wantPrev {
				t.Errorf("HasPrev = %v, want %v", m.HasPrev, tt.wantPrev)
			}
			if m.Total != tt.total || m.CurrentPage != tt.page.Page || m.Limit != tt.page.Limit {
				t.Errorf("Meta() = %+v", m)
			}
		})
	}
}
