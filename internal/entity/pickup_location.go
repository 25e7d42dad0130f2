package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// PickupLocation is a place where customers collect their orders.
type PickupLocation struct {
	bun.BaseModel `bun:"table:pickup_locations,alias:pl"`

	ID        int64     `bun:",pk,autoincrement"`
	Version   int64     `bun:"version"`
	Name      string    `bun:"name"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}

// NewPickupLocation returns an empty, unsaved location for the editor to fill in.
func NewPickupLocation() *PickupLocation {
	return &PickupLocation{}
}
