package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is a catalog item. Price is stored in cents.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`

	ID        int64     `bun:",pk,autoincrement"`
	Version   int64     `bun:"version"`
	Name      string    `bun:"name"`
	Price     int64     `bun:"price"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// NewProduct returns an empty, unsaved product for the editor to fill in.
func NewProduct() *Product {
	return &Product{}
}
