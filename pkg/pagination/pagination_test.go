package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"limit=10&offset=30", 10, 30},
		{"limit=1000", MaxLimit, 0},
		{"limit=-5&offset=-2", DefaultLimit, 0},
		{"limit=abc", DefaultLimit, 0},
	}
	for _, tc := range cases {
		p := paramsFor(t, tc.query)
		if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
			t.Errorf("query %q: got limit=%d offset=%d, want %d/%d",
				tc.query, p.Limit, p.Offset, tc.wantLimit, tc.wantOffset)
		}
	}
}

func TestNewResponseHasMore(t *testing.T) {
	r := NewResponse([]int{1, 2}, 5, 2, 0)
	if !r.HasMore {
		t.Error("expected HasMore with 5 total and page of 2")
	}
	r = NewResponse([]int{1}, 5, 2, 4)
	if r.HasMore {
		t.Error("expected no more results past the last page")
	}
}

func TestNextOffset(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if got := p.NextOffset(); got != 60 {
		t.Errorf("NextOffset = %d, want 60", got)
	}
	if !p.HasNext(100) {
		t.Error("expected HasNext at offset 40 of 100")
	}
	if p.HasNext(60) {
		t.Error("did not expect HasNext at offset 40 of 60")
	}
}
