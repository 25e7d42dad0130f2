package dto

// PickupLocationResponse represents a pickup location.
type PickupLocationResponse struct {
	ID      int64  `json:"id"`
	Version int64  `json:"version"`
	Name    string `json:"name"`
}

// PickupLocationWriteRequest creates or updates a pickup location. Updates
// echo back the version the client read.
type PickupLocationWriteRequest struct {
	Version int64  `json:"version,omitempty"`
	Name    string `json:"name"`
}
