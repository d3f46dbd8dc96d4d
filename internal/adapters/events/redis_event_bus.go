package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
	"github.com/zatekoja/mypadicare/internal/domain/providers"
	redisclient "github.com/zatekoja/mypadicare/internal/infrastructure/clients/redis"
	"github.com/zatekoja/mypadicare/internal/infrastructure/observability"
)

// subscriberBuffer bounds undelivered events per subscriber.
const subscriberBuffer = 16

// RedisEventBus implements the EventBus interface using Redis Pub/Sub
type RedisEventBus struct {
	client *redis.Client

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	wg     sync.WaitGroup
	closed bool
}

var _ providers.EventBus = (*RedisEventBus)(nil)

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return &RedisEventBus{
		client: client.Client(),
		subs:   make(map[*redis.PubSub]struct{}),
	}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.DatasetEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Msg("published dataset event")
	return nil
}

// Subscribe subscribes to events on a channel
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DatasetEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("event bus closed")
	}

	pubsub := b.client.Subscribe(ctx, channel)
	// wait for the subscription to be confirmed so no event is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	b.subs[pubsub] = struct{}{}

	out := make(chan *entities.DatasetEvent, subscriberBuffer)
	b.wg.Add(1)
	go b.receive(ctx, channel, pubsub, out)
	return out, nil
}

func (b *RedisEventBus) receive(ctx context.Context, channel string, pubsub *redis.PubSub, out chan<- *entities.DatasetEvent) {
	defer b.wg.Done()
	defer close(out)
	defer b.release(pubsub)

	logger := observability.LoggerFromContext(ctx)
	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event entities.DatasetEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Warn().Err(err).Str("channel", channel).Msg("failed to unmarshal dataset event")
				continue
			}

			select {
			case out <- &event:
			default:
				logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber full, dropping dataset event")
			}
		}
	}
}

func (b *RedisEventBus) release(pubsub *redis.PubSub) {
	b.mu.Lock()
	delete(b.subs, pubsub)
	b.mu.Unlock()
	pubsub.Close()
}

// Close closes the event bus and all subscriptions
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	b.closed = true
	var errs []error
	for pubsub := range b.subs {
		errs = append(errs, pubsub.Close())
	}
	b.mu.Unlock()

	b.wg.Wait()
	return errors.Join(errs...)
}
