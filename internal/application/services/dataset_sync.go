package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// Invalidator drops cached data derived from the treatment datasets.
type Invalidator interface {
	Invalidate()
}

// DatasetSync keeps dataset caches consistent across instances: a local
// change is announced on the bus and announcements from other instances
// invalidate the local caches.
type DatasetSync struct {
	bus        providers.EventBus
	instanceID string
	local      Invalidator
	now        func() time.Time
}

// NewDatasetSync creates a sync for one instance.
func NewDatasetSync(bus providers.EventBus, instanceID string, local Invalidator) *DatasetSync {
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	return &DatasetSync{bus: bus, instanceID: instanceID, local: local, now: time.Now}
}

// Invalidate drops local caches and announces the change. Publishing
// failures are logged; the local invalidation always happens.
func (s *DatasetSync) Invalidate() {
	s.local.Invalidate()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &entities.DatasetEvent{
		ID:         uuid.NewString(),
		Source:     s.instanceID,
		OccurredAt: s.now().UTC(),
	}
	if err := s.bus.Publish(ctx, providers.EventChannelDatasets, event); err != nil {
		observability.GetLogger().Warn().Err(err).Msg("failed to announce dataset change")
	}
}

// Run applies announcements from other instances until ctx ends.
func (s *DatasetSync) Run(ctx context.Context) error {
	events, err := s.bus.Subscribe(ctx, providers.EventChannelDatasets)
	if err != nil {
		return err
	}

	logger := observability.LoggerFromContext(ctx)
	for event := range events {
		if event.Source == s.instanceID {
			continue
		}
		logger.Info().
			Str("source", event.Source).
			Str("event_id", event.ID).
			Msg("treatment datasets changed on another instance")
		s.local.Invalidate()
	}
	return ctx.Err()
}
