// Package pagination extracts limit/offset windows from requests and wraps
// paginated responses in a uniform envelope.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Params holds the pagination window extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads "limit" and "offset" query parameters, applying the
// default and cap. Absent or malformed values fall back to defaults.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Response is the envelope for one page of results. NextOffset is present
// only when a further page exists.
type Response struct {
	Data       any  `json:"data"`
	Total      int  `json:"total"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasMore    bool `json:"has_more"`
	NextOffset int  `json:"next_offset,omitempty"`
}

func NewResponse(data any, total int, p Params) *Response {
	resp := &Response{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasNext(total),
	}
	if resp.HasMore {
		resp.NextOffset = p.NextOffset()
	}
	return resp
}

// HasNext reports whether results exist past the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// NextOffset returns the offset of the following page.
func (p Params) NextOffset() int {
	return p.Offset + p.Limit
}

// Window clips the page bounds to a slice of the given length, returning the
// half-open index range to serve.
func (p Params) Window(length int) (start, end int) {
	start = p.Offset
	if start > length {
		start = length
	}
	end = start + p.Limit
	if end > length {
		end = length
	}
	return start, end
}
