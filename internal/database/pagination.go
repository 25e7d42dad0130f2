package database

import "github.com/uptrace/bun"

// Pagination selects a 1-based page of a list query. Size <= 0 disables the
// limit entirely.
type Pagination struct {
	Page int
	Size int
}

// Normalize clamps the page to 1 when unset or negative.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	return p
}

// Offset is the number of rows skipped before the requested page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}

// Apply attaches LIMIT/OFFSET to q when a size is set.
func (p Pagination) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	p = p.Normalize()
	if p.Size <= 0 {
		return q
	}
	return q.Limit(p.Size).Offset(p.Offset())
}
