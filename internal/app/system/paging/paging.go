// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the "limit" query parameter.
const MaxPageSize = 200

// ParseStart extracts the 1-based "start" query parameter.
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "start"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ParseLimit extracts the "limit" query parameter, clamped to
// [1, MaxPageSize]. Returns PageSize if not present or invalid.
func ParseLimit(r *http.Request) int {
	n, err := strconv.Atoi(query.Get(r, "limit"))
	if err != nil || n < 1 {
		return PageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Range holds computed display range values for a paginated list.
type Range struct {
	Start     int `json:"start"`      // 1-based start index (0 if no results)
	End       int `json:"end"`        // 1-based end index (0 if no results)
	PrevStart int `json:"prev_start"` // start value for previous page link
	NextStart int `json:"next_start"` // start value for next page link
}

// ComputeRange calculates display range values given the current start index
// and number of items shown.
func ComputeRange(start, shown int) Range {
	return computeRange(start, shown, PageSize)
}

func computeRange(start, shown, pageSize int) Range {
	if shown == 0 {
		return Range{Start: 0, End: 0, PrevStart: 1, NextStart: 1}
	}
	prevStart := start - pageSize
	if prevStart < 1 {
		prevStart = 1
	}
	return Range{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
	}
}

// Page is one window over an already-filtered snapshot.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int   `json:"total"`
	Range   Range `json:"range"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
}

// Window slices rows starting at the 1-based index start, returning at most
// size items. A start past the end yields an empty page.
func Window[T any](rows []T, start, size int) Page[T] {
	if size < 1 {
		size = PageSize
	}
	if start < 1 {
		start = 1
	}
	total := len(rows)
	from := start - 1
	if from > total {
		from = total
	}
	to := from + size
	if to > total {
		to = total
	}
	items := rows[from:to]
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:   items,
		Total:   total,
		Range:   computeRange(start, len(items), size),
		HasPrev: start > 1,
		HasNext: to < total,
	}
}
