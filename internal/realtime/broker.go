package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const productChannel = "products-changes"

// Op is the kind of change carried by an Event.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event is a change notification for the products table. Consumers treat it
// as a trigger to re-fetch the full list; the payload is deliberately thin.
type Event struct {
	Table string    `json:"table"`
	Op    Op        `json:"op"`
	ID    uuid.UUID `json:"id"`
}

// Publisher is the write side of the broker, what the admin catalog service
// depends on.
type Publisher interface {
	PublishProductChange(ctx context.Context, op Op, id uuid.UUID) error
}

// Broker fans product change events out over redis pub/sub. It is the
// server-side equivalent of the storefront's realtime channel: every
// mutation publishes, every catalog stream subscriber re-fetches.
type Broker struct {
	client *redis.Client
	logger *zap.Logger
}

// NewBroker creates a Broker over an existing redis client.
func NewBroker(client *redis.Client, logger *zap.Logger) *Broker {
	return &Broker{client: client, logger: logger}
}

// PublishProductChange emits one change event.
func (b *Broker) PublishProductChange(ctx context.Context, op Op, id uuid.UUID) error {
	payload, err := json.Marshal(Event{Table: "products", Op: op, ID: id})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, productChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish product change: %w", err)
	}

	return nil
}

// Subscription is a live handle on the product change feed. The consumer
// owns its lifecycle and must call Close when done.
type Subscription struct {
	pubsub *redis.PubSub
	events chan Event
	done   chan struct{}
}

// Events returns the channel change notifications arrive on. The channel is
// closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close cancels the subscription and releases the redis connection.
func (s *Subscription) Close() error {
	close(s.done)
	return s.pubsub.Close()
}

// SubscribeProducts opens a subscription to product change events. Malformed
// payloads are logged and dropped rather than terminating the feed.
func (b *Broker) SubscribeProducts(ctx context.Context) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, productChannel)

	// Force the subscription onto the wire before returning
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to product changes: %w", err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan Event),
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.events)
		ch := pubsub.Channel()
		for {
			select {
			case <-sub.done:
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("Dropping malformed change event", zap.Error(err))
					continue
				}
				select {
				case sub.events <- event:
				case <-sub.done:
					return
				}
			}
		}
	}()

	return sub, nil
}
