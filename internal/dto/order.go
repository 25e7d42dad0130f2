package dto

import "time"

// CustomerPayload carries the order's contact person on write requests.
type CustomerPayload struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Details     string `json:"details,omitempty"`
}

// OrderItemPayload is one requested product line.
type OrderItemPayload struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Comment   string `json:"comment,omitempty"`
}

// OrderWriteRequest is the payload for creating or replacing an order.
// Dates use "2006-01-02", times "15:04". Updates echo back the version the
// client read so concurrent edits surface as conflicts.
type OrderWriteRequest struct {
	Version          int64              `json:"version,omitempty"`
	DueDate          string             `json:"due_date"`
	DueTime          string             `json:"due_time"`
	PickupLocationID int64              `json:"pickup_location_id"`
	Customer         CustomerPayload    `json:"customer"`
	Items            []OrderItemPayload `json:"items"`
}

// CustomerResponse represents the order's contact person.
type CustomerResponse struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Details     string `json:"details,omitempty"`
}

// OrderItemResponse is one product line on a returned order.
type OrderItemResponse struct {
	ID         int64            `json:"id"`
	Product    *ProductResponse `json:"product,omitempty"`
	Quantity   int              `json:"quantity"`
	Comment    string           `json:"comment,omitempty"`
	TotalPrice int64            `json:"total_price"`
}

// HistoryItemResponse is one entry on an order's timeline.
type HistoryItemResponse struct {
	ID        int64     `json:"id"`
	NewState  string    `json:"new_state"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderResponse represents a full order as exposed via transport layers.
type OrderResponse struct {
	ID             int64                   `json:"id"`
	Version        int64                   `json:"version"`
	DueDate        string                  `json:"due_date"`
	DueTime        string                  `json:"due_time"`
	State          string                  `json:"state"`
	Customer       *CustomerResponse       `json:"customer,omitempty"`
	PickupLocation *PickupLocationResponse `json:"pickup_location,omitempty"`
	Items          []OrderItemResponse     `json:"items"`
	History        []HistoryItemResponse   `json:"history,omitempty"`
	TotalPrice     int64                   `json:"total_price"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// OrderSummaryResponse is a row on the upcoming-orders board.
type OrderSummaryResponse struct {
	ID           int64               `json:"id"`
	State        string              `json:"state"`
	DueDate      string              `json:"due_date"`
	DueTime      string              `json:"due_time"`
	CustomerName string              `json:"customer_name"`
	Items        []OrderItemResponse `json:"items"`
	TotalPrice   int64               `json:"total_price"`
}
