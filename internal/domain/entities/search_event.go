package entities

import (
	"time"
)

// SearchEvent represents a single resolved search for analytics.
type SearchEvent struct {
	ID                 string    `json:"id" db:"id"`
	Query              string    `json:"query" db:"query"`
	Strategy           string    `json:"strategy" db:"strategy"`
	ResultCount        int       `json:"result_count" db:"result_count"`
	TotalCount         int       `json:"total_count" db:"total_count"`
	LatencyMs          int       `json:"latency_ms" db:"latency_ms"`
	ReferenceLatitude  *float64  `json:"reference_latitude,omitempty" db:"reference_latitude"`
	ReferenceLongitude *float64  `json:"reference_longitude,omitempty" db:"reference_longitude"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}
