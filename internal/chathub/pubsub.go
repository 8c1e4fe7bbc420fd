package chathub

import (
	"context"
	"encoding/json"
	"log"

	"pairchat/backend/internal/models"
)

// Consumer is a relay subscription, see relay.Relay.Consume.
type Consumer interface {
	Consume(ctx context.Context) (<-chan []byte, error)
}

// StartPubSubListener subscribes to the chat rooms topic and forwards every
// event to the local registry until ctx is cancelled. The subscription is
// established before it returns.
func (m *ManagerService) StartPubSubListener(ctx context.Context, consumer Consumer) error {
	events, err := consumer.Consume(ctx)
	if err != nil {
		return err
	}
	go ForwardRoomEvents(events, m)
	return nil
}

// ForwardRoomEvents routes each payload to the registry by its room_id. It
// returns when events is closed.
func ForwardRoomEvents(events <-chan []byte, registry Registry) {
	for payload := range events {
		var env models.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			log.Printf("Error unmarshalling relay event: %v", err)
			continue
		}
		if env.RoomID == 0 {
			log.Printf("WARN: Relay event %s has no room_id, skipping", env.Type)
			continue
		}
		registry.Broadcast(env.RoomID, payload)
	}
}
