package dto

import "time"

// UserResponse represents a staff account. The password hash never leaves
// the service.
type UserResponse struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserWriteRequest creates or updates a staff account. A blank password on
// update keeps the stored credential. Updates echo back the version the
// client read.
type UserWriteRequest struct {
	Version   int64  `json:"version,omitempty"`
	Email     string `json:"email"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Locked    bool   `json:"locked"`
}
