package providers

import (
	"context"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// EventChannelDatasets carries dataset change announcements.
const EventChannelDatasets = "mypadicare:datasets"

// EventBus defines the interface for publishing and subscribing to events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.DatasetEvent) error

	// Subscribe delivers events on channel until ctx ends, then closes the
	// returned channel.
	Subscribe(ctx context.Context, channel string) (<-chan *entities.DatasetEvent, error)

	// Close closes the event bus and all subscriptions
	Close() error
}
