package ws

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-service/internal/models"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := &websocket.Conn{}
	other := &websocket.Conn{}

	hub.AddClient("c1", conn, ConnInfo{ConnID: "conn-1", UserID: "local"})
	hub.AddClient("c1", other, ConnInfo{ConnID: "conn-2", UserID: "u1"})

	hub.mu.RLock()
	require.Len(t, hub.rooms["c1"], 2)
	assert.Equal(t, "conn-1", hub.rooms["c1"][conn].ConnID)
	hub.mu.RUnlock()

	hub.RemoveClient("c1", conn)
	hub.mu.RLock()
	require.Len(t, hub.rooms["c1"], 1)
	hub.mu.RUnlock()

	// The last client leaving tears the room down.
	hub.RemoveClient("c1", other)
	hub.mu.RLock()
	_, ok := hub.rooms["c1"]
	hub.mu.RUnlock()
	assert.False(t, ok)
}

func TestHubRemoveUnknownClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	hub.RemoveClient("missing", &websocket.Conn{})
}

func TestHubBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	msg := models.Message{ID: "m1", ChatID: "c1", Content: "hello", Status: models.StatusSent, CreatedAt: time.Now()}
	hub.BroadcastMessage("c1", msg)
	hub.BroadcastStatus("c1", msg)
	hub.BroadcastDeletion("c1", "m1")
	hub.BroadcastReaction("c1", "m1", models.Reaction{UserID: "u1", Emoji: "🔥"})
}
