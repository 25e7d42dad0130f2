package request

import (
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newContext(t *testing.T, target string) echo.Context {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec)
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		wantPage int
		wantSize int
	}{
		{"defaults", "/orders", 1, 20},
		{"explicit", "/orders?page=3&size=50", 3, 50},
		{"zero page clamps to one", "/orders?page=0", 1, 20},
		{"negative size falls back", "/orders?size=-5", 1, 20},
		{"size capped", "/orders?size=1000", 1, 200},
		{"garbage falls back", "/orders?page=abc&size=xyz", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pagination(newContext(t, tt.target))
			if got.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", got.Page, tt.wantPage)
			}
			if got.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", got.Size, tt.wantSize)
			}
		})
	}
}
