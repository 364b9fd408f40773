package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	cases := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
		wantPage   int
	}{
		{"defaults", "/payruns", 20, 0, 1},
		{"explicit offset", "/payruns?limit=10&offset=30", 10, 30, 4},
		{"page parameter", "/payruns?limit=10&page=3", 10, 20, 3},
		{"offset wins over page", "/payruns?limit=10&offset=50&page=9", 10, 50, 6},
		{"limit capped", "/payruns?limit=500", 100, 0, 1},
		{"garbage falls back", "/payruns?limit=abc&offset=-5&page=zero", 20, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			page := ParsePagination(r, 20, 100)
			if page.Limit != tc.wantLimit || page.Offset != tc.wantOffset {
				t.Fatalf("got limit=%d offset=%d, want limit=%d offset=%d", page.Limit, page.Offset, tc.wantLimit, tc.wantOffset)
			}
			if got := page.Page(); got != tc.wantPage {
				t.Fatalf("page number: got %d, want %d", got, tc.wantPage)
			}
		})
	}
}
