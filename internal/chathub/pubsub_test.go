package chathub_test

import (
	"context"
	"testing"
	"time"

	"pairchat/backend/internal/chathub"
	"pairchat/backend/internal/models"
	"pairchat/backend/internal/relay"
	"pairchat/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contextWithCancel(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)
	return ctx, cancel
}

type recordingRegistry struct {
	chathub.Registry
	rooms    []uint
	payloads []string
}

func (r *recordingRegistry) Broadcast(roomID uint, payload []byte) {
	r.rooms = append(r.rooms, roomID)
	r.payloads = append(r.payloads, string(payload))
}

func TestForwardRoomEvents_RoutesByRoomID(t *testing.T) {
	// Arrange
	events := make(chan []byte, 4)
	events <- []byte(`{"type":"DELETE_MESSAGE","room_id":3,"message_id":1}`)
	events <- []byte(`not json`)
	events <- []byte(`{"type":"USER_LEAVE"}`)
	events <- []byte(`{"type":"USER_LEAVE","room_id":5,"user_id":2,"user_nickname":"bob"}`)
	close(events)
	registry := &recordingRegistry{}

	// Act
	chathub.ForwardRoomEvents(events, registry)

	// Assert
	assert.Equal(t, []uint{3, 5}, registry.rooms)
	assert.Len(t, registry.payloads, 2)
}

func TestStartPubSubListener_DeliversRelayEvents(t *testing.T) {
	_, rdb := storagetest.NewRedis(t)
	r := relay.New(rdb, "chat:rooms", time.Second)
	hub := startHub(t)
	alice := newMockClient("alice", 4)
	hub.Register(9, alice)

	require.NoError(t, hub.StartPubSubListener(t.Context(), r))
	require.NoError(t, r.Publish(t.Context(), models.NewDeleteMessageEvent(9, 4)))

	expectPayload(t, alice, `{"type":"DELETE_MESSAGE","room_id":9,"message_id":4}`)
}
