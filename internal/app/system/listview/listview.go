// Package listview filters and pages an already-loaded list of records.
//
// Lists are read eagerly and filtered in memory: substring search over a
// record's text fields, equality on enumerated fields, and an inclusive
// date range.
package listview

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/campushub/internal/app/system/normalize"
	"github.com/dalemusser/campushub/internal/app/system/paging"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/text"
)

// DateLayout is the format of the from/to query parameters.
const DateLayout = "2006-01-02"

// Query is a parsed list request.
type Query struct {
	Search string
	Enums  map[string]string
	From   *time.Time
	To     *time.Time
	Start  int
	Limit  int
}

// ParseQuery reads q, from, to, start, limit and each named enum parameter.
// Enum values "" and "all" mean no filter. Unparseable dates are ignored.
func ParseQuery(r *http.Request, enumKeys ...string) Query {
	q := Query{
		Search: normalize.QueryParam(query.Get(r, "q")),
		Enums:  make(map[string]string, len(enumKeys)),
		Start:  paging.ParseStart(r),
		Limit:  paging.ParseLimit(r),
	}
	for _, k := range enumKeys {
		if v := normalize.EnumParam(query.Get(r, k)); v != "" {
			q.Enums[k] = v
		}
	}
	if t, err := time.Parse(DateLayout, normalize.QueryParam(query.Get(r, "from"))); err == nil {
		q.From = &t
	}
	if t, err := time.Parse(DateLayout, normalize.QueryParam(query.Get(r, "to"))); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		q.To = &end
	}
	return q
}

// Fields tells Filter how to read a record.
type Fields[T any] struct {
	// Text returns the values searched by Query.Search.
	Text func(T) []string
	// Enum returns the value of the named enumerated field.
	Enum func(T, string) string
	// Date returns the value compared against From/To.
	Date func(T) time.Time
}

// Filter returns the rows matching q, preserving order.
func Filter[T any](rows []T, q Query, f Fields[T]) []T {
	needle := text.Fold(q.Search)
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if needle != "" && f.Text != nil && !containsAny(f.Text(row), needle) {
			continue
		}
		if !enumsMatch(row, q.Enums, f.Enum) {
			continue
		}
		if f.Date != nil && (q.From != nil || q.To != nil) {
			d := f.Date(row)
			if q.From != nil && d.Before(*q.From) {
				continue
			}
			if q.To != nil && d.After(*q.To) {
				continue
			}
		}
		out = append(out, row)
	}
	return out
}

// Apply filters rows and returns the requested page.
func Apply[T any](rows []T, q Query, f Fields[T]) paging.Page[T] {
	return paging.Window(Filter(rows, q, f), q.Start, q.Limit)
}

func containsAny(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(text.Fold(v), needle) {
			return true
		}
	}
	return false
}

func enumsMatch[T any](row T, want map[string]string, get func(T, string) string) bool {
	if len(want) == 0 || get == nil {
		return true
	}
	for k, v := range want {
		if normalize.EnumParam(get(row, k)) != v {
			return false
		}
	}
	return true
}
