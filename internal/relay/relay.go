// Package relay bridges processes over Redis Pub/Sub. One Relay serves one
// topic; the chat rooms topic and the verification topic each get their own
// instance, so they never share subscriptions or ordering.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrPublish wraps every failure to hand an event to the broker.
var ErrPublish = errors.New("relay publish failed")

// DefaultPublishTimeout bounds a single PUBLISH round trip.
const DefaultPublishTimeout = 5 * time.Second

type Relay struct {
	client         redis.UniversalClient
	topic          string
	publishTimeout time.Duration
}

// New creates a relay for topic. A non-positive publishTimeout falls back to
// DefaultPublishTimeout.
func New(client redis.UniversalClient, topic string, publishTimeout time.Duration) *Relay {
	if publishTimeout <= 0 {
		publishTimeout = DefaultPublishTimeout
	}
	return &Relay{
		client:         client,
		topic:          topic,
		publishTimeout: publishTimeout,
	}
}

func (r *Relay) Topic() string { return r.topic }

// Publish серіалізує подію в JSON і публікує її в топік.
// Помилки брокера повертаються викликачу, а не ковтаються.
func (r *Relay) Publish(ctx context.Context, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encode %T: %w", ErrPublish, event, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.publishTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.topic, payload).Err(); err != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrPublish, r.topic, err)
	}
	return nil
}

// Consume subscribes to the topic and streams raw payloads until ctx is
// cancelled. The subscription is confirmed before Consume returns, so events
// published afterwards are not missed. The returned channel is closed when
// the stream ends; consuming again requires a new subscription.
func (r *Relay) Consume(ctx context.Context) (<-chan []byte, error) {
	pubsub := r.client.Subscribe(ctx, r.topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", r.topic, err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					log.Printf("WARN: Subscription to %s closed by broker", r.topic)
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
