package providers

import (
	"context"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
)

// EventChannelLocationUpdates carries dataset events between the importer, indexer and API instances
const EventChannelLocationUpdates = "locations:updates"

// EventPublisher publishes dataset events
type EventPublisher interface {
	Publish(ctx context.Context, channel string, event *entities.DatasetEvent) error
}

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	EventPublisher

	// Subscribe delivers events on channel until ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DatasetEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}
