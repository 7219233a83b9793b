package dto

import "time"

// TickDTO is the API representation of a counter or gauge row.
// The internal surrogate key is deliberately absent.
type TickDTO struct {
	NanoID    string    `json:"nano_id"`
	Value     int64     `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IncrementRequest is the optional JSON body of POST /c/{id} and /g/{id}.
// Delta defaults to 1 when the body is empty.
type IncrementRequest struct {
	Delta *int64 `json:"delta" validate:"omitempty,ne=0"`
}
