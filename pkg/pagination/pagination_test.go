package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   Params
	}{
		{"defaults", "/messages", Params{Limit: DefaultLimit, Offset: 0}},
		{"explicit", "/messages?limit=10&offset=25", Params{Limit: 10, Offset: 25}},
		{"capped", "/messages?limit=99999", Params{Limit: MaxLimit, Offset: 0}},
		{"negative offset", "/messages?offset=-5", Params{Limit: DefaultLimit, Offset: 0}},
		{"malformed", "/messages?limit=abc&offset=xyz", Params{Limit: DefaultLimit, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paramsFor(t, tt.target); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name       string
		p          Params
		length     int
		start, end int
	}{
		{"middle page", Params{Limit: 10, Offset: 5}, 30, 5, 15},
		{"tail clipped", Params{Limit: 10, Offset: 25}, 30, 25, 30},
		{"offset beyond end", Params{Limit: 10, Offset: 50}, 30, 30, 30},
		{"empty", Params{Limit: 10, Offset: 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.p.Window(tt.length)
			if start != tt.start || end != tt.end {
				t.Errorf("Window(%d) = %d..%d, want %d..%d", tt.length, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]int{1, 2}, 30, Params{Limit: 10, Offset: 25})
	if resp.HasMore {
		t.Error("offset 25 + limit 10 covers total 30, HasMore must be false")
	}
	if resp.NextOffset != 0 {
		t.Errorf("last page must omit next offset, got %d", resp.NextOffset)
	}

	resp = NewResponse([]int{1, 2}, 30, Params{Limit: 10, Offset: 10})
	if !resp.HasMore {
		t.Error("expected more pages")
	}
	if resp.NextOffset != 20 {
		t.Errorf("NextOffset = %d", resp.NextOffset)
	}
}

func TestNextOffset(t *testing.T) {
	p := Params{Limit: 10, Offset: 20}
	if !p.HasNext(31) {
		t.Error("expected a next page")
	}
	if p.HasNext(30) {
		t.Error("did not expect a next page")
	}
	if p.NextOffset() != 30 {
		t.Errorf("NextOffset = %d", p.NextOffset())
	}
}
