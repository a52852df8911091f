package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"whisper-service/internal/models"
	"whisper-service/internal/observability"
)

const chatEventsRoutingKey = "ws_events.chats"

// Hub maintains active websocket rooms, one per chat.
type Hub struct {
	rooms map[string]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
	log   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]ConnInfo),
		log:   log,
	}
}

// AddClient registers a websocket connection to a chat room.
func (h *Hub) AddClient(chatID string, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[chatID][conn] = info
}

// RemoveClient removes a chat websocket connection.
func (h *Hub) RemoveClient(chatID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// BroadcastMessage sends a new-message event to all clients in a chat.
func (h *Hub) BroadcastMessage(chatID string, msg models.Message) {
	h.broadcast(chatID, models.ChatEvent{Type: "message", Message: &msg})
}

// BroadcastStatus notifies clients of an applied status transition.
func (h *Hub) BroadcastStatus(chatID string, msg models.Message) {
	h.broadcast(chatID, models.ChatEvent{Type: "status", MessageID: msg.ID, Status: msg.Status})
}

// BroadcastDeletion notifies clients of a soft delete.
func (h *Hub) BroadcastDeletion(chatID string, messageID string) {
	h.broadcast(chatID, models.ChatEvent{Type: "delete_for_all", MessageID: messageID})
}

// BroadcastReaction notifies clients of a new reaction.
func (h *Hub) BroadcastReaction(chatID string, messageID string, reaction models.Reaction) {
	h.broadcast(chatID, models.ChatEvent{Type: "reaction", MessageID: messageID, Reaction: &reaction})
}

func (h *Hub) broadcast(chatID string, event models.ChatEvent) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]ConnInfo, len(h.rooms[chatID]))
	for conn, info := range h.rooms[chatID] {
		conns[conn] = info
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for conn, info := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn().Err(err).Str("chat_id", chatID).Msg("websocket write error")
			conn.Close()
			h.RemoveClient(chatID, conn)
			h.publishWSError(chatID, info, err)
		}
	}
}

func (h *Hub) publishWSError(chatID string, info ConnInfo, err error) {
	payload := wsEventPayload(chatID, "ws_error", info, err.Error(), time.Since(info.ConnectedAt))
	headers := observability.CorrelationHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), chatEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("chat", "ws_error")
}

func wsEventPayload(chatID, event string, info ConnInfo, reason string, duration time.Duration) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "chat",
			"chat_id":     chatID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration.Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
