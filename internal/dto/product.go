package dto

import "time"

// ProductResponse represents a catalog item. Price is in cents.
type ProductResponse struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductWriteRequest creates or updates a catalog item. Updates echo back
// the version the client read.
type ProductWriteRequest struct {
	Version int64  `json:"version,omitempty"`
	Name    string `json:"name"`
	Price   int64  `json:"price"`
}
