package database

import "testing"

func TestPaginationNormalize(t *testing.T) {
	tests := []struct {
		name       string
		in         Pagination
		wantPage   int
		wantOffset int
	}{
		{name: "zero page becomes first", in: Pagination{Page: 0, Size: 20}, wantPage: 1, wantOffset: 0},
		{name: "negative page becomes first", in: Pagination{Page: -3, Size: 20}, wantPage: 1, wantOffset: 0},
		{name: "third page of ten", in: Pagination{Page: 3, Size: 10}, wantPage: 3, wantOffset: 20},
		{name: "unbounded size", in: Pagination{Page: 4, Size: 0}, wantPage: 4, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.in.Normalize()
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if got := p.Offset(); got != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", got, tt.wantOffset)
			}
		})
	}
}
