package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orris-inc/autopay/internal/domain/shared/events"
	"github.com/orris-inc/autopay/internal/shared/logger"
)

// DefaultEventChannel carries every committed domain event as JSON.
const DefaultEventChannel = "autopay:events"

const publishTimeout = 3 * time.Second

// EventEnvelope is the wire form of a relayed domain event. Payload holds the
// full event as emitted by the domain.
type EventEnvelope struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// EnvelopeHandler is a callback for relayed events
type EnvelopeHandler func(ctx context.Context, envelope EventEnvelope)

var _ events.EventHandler = (*RedisEventBus)(nil)

// RedisEventBus relays domain events to Redis Pub/Sub so other instances and
// operators can observe payments. Subscribe it to the in-process dispatcher
// with events.AllEvents.
type RedisEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

func NewRedisEventBus(client *redis.Client, channel string, logger logger.Interface) *RedisEventBus {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisEventBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (b *RedisEventBus) CanHandle(string) bool {
	return true
}

// Handle publishes one event. It runs on the dispatcher goroutine, so it uses
// its own bounded context.
func (b *RedisEventBus) Handle(event events.DomainEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	return b.Publish(ctx, event)
}

func (b *RedisEventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	data, err := json.Marshal(EventEnvelope{
		EventID:     event.GetEventID(),
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		OccurredAt:  event.GetOccurredAt(),
		Payload:     payload,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish domain event",
			"event_type", event.GetEventType(),
			"aggregate_id", event.GetAggregateID(),
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("domain event published",
		"event_type", event.GetEventType(),
		"aggregate_id", event.GetAggregateID(),
	)
	return nil
}

// Subscribe blocks delivering relayed events to handler until ctx is done.
// Handlers run on the receive loop and must not block for long.
func (b *RedisEventBus) Subscribe(ctx context.Context, handler EnvelopeHandler) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to domain events", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			b.logger.Infow("domain event subscriber stopped", "reason", ctx.Err())
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("domain event channel closed")
				return nil
			}

			var envelope EventEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
				b.logger.Warnw("failed to unmarshal domain event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			handler(ctx, envelope)
		}
	}
}
