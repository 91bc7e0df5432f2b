// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/churchroll/internal/app/store"
	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows returned by list endpoints.
const PageSize = 50

// MaxPageSize caps the ?limit= parameter.
const MaxPageSize = 200

// Request is the window a client asked for.
type Request struct {
	Offset int64
	Limit  int64
}

// Parse reads ?offset= (0-based) and ?limit= from the request. Missing or
// invalid values fall back to 0 and PageSize; limit is clamped to MaxPageSize.
func Parse(r *http.Request) Request {
	req := Request{Limit: PageSize}
	if n, err := strconv.ParseInt(query.Get(r, "offset"), 10, 64); err == nil && n > 0 {
		req.Offset = n
	}
	if n, err := strconv.ParseInt(query.Get(r, "limit"), 10, 64); err == nil && n > 0 {
		req.Limit = min(n, MaxPageSize)
	}
	return req
}

// LookAhead returns the store window for req with one extra row, so Trim can
// tell whether another page exists.
func (req Request) LookAhead() store.Page {
	return store.Page{Offset: req.Offset, Limit: req.Limit + 1}
}

// Page is the JSON envelope for a list response.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Offset     int64 `json:"offset"`
	Limit      int64 `json:"limit"`
	HasNext    bool  `json:"has_next"`
	NextOffset int64 `json:"next_offset,omitempty"`
}

// Trim drops the look-ahead row fetched with LookAhead and builds the
// envelope. Items is never nil so it encodes as [].
func Trim[T any](rows []T, req Request) Page[T] {
	p := Page[T]{Offset: req.Offset, Limit: req.Limit}
	if int64(len(rows)) > req.Limit {
		rows = rows[:req.Limit]
		p.HasNext = true
		p.NextOffset = req.Offset + req.Limit
	}
	if rows == nil {
		rows = []T{}
	}
	p.Items = rows
	return p
}
