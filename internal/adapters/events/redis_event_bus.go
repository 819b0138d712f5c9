package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/restaurantlocator/backend/internal/domain/entities"
	"github.com/zatekoja/restaurantlocator/backend/internal/domain/providers"
	redisclient "github.com/zatekoja/restaurantlocator/backend/internal/infrastructure/clients/redis"
)

const subscriberBuffer = 16

// ErrBusClosed is returned by Subscribe after Close
var ErrBusClosed = errors.New("event bus closed")

// RedisEventBus carries dataset events between processes over Redis pub/sub.
// All channels share one PubSub connection; messages are fanned out to local
// subscribers without blocking, so a slow subscriber misses events instead of
// stalling the others.
type RedisEventBus struct {
	rdb *redis.Client

	mu          sync.RWMutex
	pubsub      *redis.PubSub
	subscribers map[string]map[chan *entities.DatasetEvent]struct{}
	closed      bool
	done        chan struct{}
}

var _ providers.EventBus = (*RedisEventBus)(nil)

func NewRedisEventBus(client *redisclient.Client) *RedisEventBus {
	return &RedisEventBus{
		rdb:         client.Client(),
		subscribers: make(map[string]map[chan *entities.DatasetEvent]struct{}),
		done:        make(chan struct{}),
	}
}

// Publish sends event to every process subscribed to channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.DatasetEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	receivers, err := b.rdb.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Int64("receivers", receivers).
		Msg("published dataset event")
	return nil
}

// Subscribe returns a channel of events published on channel. It is closed
// when ctx ends, on Unsubscribe or on Close.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.DatasetEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBusClosed
	}

	if _, listening := b.subscribers[channel]; !listening {
		if err := b.listen(ctx, channel); err != nil {
			return nil, err
		}
		b.subscribers[channel] = make(map[chan *entities.DatasetEvent]struct{})
	}

	sub := make(chan *entities.DatasetEvent, subscriberBuffer)
	b.subscribers[channel][sub] = struct{}{}
	log.Info().Str("channel", channel).Int("subscribers", len(b.subscribers[channel])).Msg("subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
			b.removeSubscriber(channel, sub)
		case <-b.done:
		}
	}()
	return sub, nil
}

// listen adds channel to the shared PubSub, opening it on first use. Caller holds mu.
func (b *RedisEventBus) listen(ctx context.Context, channel string) error {
	if b.pubsub != nil {
		if err := b.pubsub.Subscribe(ctx, channel); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
		}
		return nil
	}

	pubsub := b.rdb.Subscribe(context.Background(), channel)
	// the confirmation must arrive before Subscribe returns or early publishes are lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	b.pubsub = pubsub
	go b.dispatch(pubsub.Channel())
	return nil
}

func (b *RedisEventBus) dispatch(messages <-chan *redis.Message) {
	for msg := range messages {
		var event entities.DatasetEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed event")
			continue
		}

		b.mu.RLock()
		for sub := range b.subscribers[msg.Channel] {
			select {
			case sub <- &event:
			default:
				log.Warn().Str("channel", msg.Channel).Str("event_id", event.ID).Msg("subscriber full, dropping event")
			}
		}
		b.mu.RUnlock()
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, sub chan *entities.DatasetEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[channel]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub)

	if len(subs) == 0 {
		if err := b.dropChannel(context.Background(), channel); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("failed to unsubscribe")
		}
	}
}

// dropChannel closes every local subscriber of channel and stops listening to it. Caller holds mu.
func (b *RedisEventBus) dropChannel(ctx context.Context, channel string) error {
	for sub := range b.subscribers[channel] {
		close(sub)
	}
	delete(b.subscribers, channel)

	if b.pubsub == nil {
		return nil
	}
	if err := b.pubsub.Unsubscribe(ctx, channel); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", channel, err)
	}
	log.Info().Str("channel", channel).Msg("closed subscription")
	return nil
}

// Unsubscribe closes every local subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[channel]; !ok {
		return nil
	}
	return b.dropChannel(ctx, channel)
}

// Close ends all subscriptions. Publish keeps working until the Redis client is closed.
func (b *RedisEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)

	for channel, subs := range b.subscribers {
		for sub := range subs {
			close(sub)
		}
		delete(b.subscribers, channel)
	}

	if b.pubsub == nil {
		return nil
	}
	if err := b.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close pubsub: %w", err)
	}
	return nil
}
