package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Customer is the contact person for an order. Customers are owned by their
// order and are created and updated inside the order save transaction.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID          int64     `bun:",pk,autoincrement"`
	FullName    string    `bun:"full_name"`
	PhoneNumber string    `bun:"phone_number"`
	Details     string    `bun:"details"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero"`
}
