package entities

import (
	"time"

	"github.com/google/uuid"
)

// DatasetEventType represents what changed in the location dataset
type DatasetEventType string

const (
	DatasetEventReplaced     DatasetEventType = "dataset_replaced"
	DatasetEventIndexRebuilt DatasetEventType = "index_rebuilt"
)

// DatasetEvent announces a bulk change to the stored locations or the search index
type DatasetEvent struct {
	ID        string           `json:"id"`
	Type      DatasetEventType `json:"type"`
	Count     int              `json:"count"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewDatasetEvent creates a new dataset event
func NewDatasetEvent(eventType DatasetEventType, count int) *DatasetEvent {
	return &DatasetEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Count:     count,
		Timestamp: time.Now().UTC(),
	}
}
