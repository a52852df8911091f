package ws

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"whisper-service/internal/observability"
	"whisper-service/internal/session"
	"whisper-service/internal/store"
)

// ChatWebSocketHandler handles chat websocket connections.
type ChatWebSocketHandler struct {
	hub      *Hub
	store    store.Conversations
	sessions session.Provider
}

// NewChatWebSocketHandler constructs a ChatWebSocketHandler.
func NewChatWebSocketHandler(hub *Hub, conversations store.Conversations, sessions session.Provider) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{hub: hub, store: conversations, sessions: sessions}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client in the chat room.
func (h *ChatWebSocketHandler) Handle(c *gin.Context) {
	chatID := c.Param("chat_id")

	ctx, span := otel.Tracer("whisper-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		if q := c.Query("token"); q != "" {
			token = "Bearer " + q
		}
	}

	identity, err := h.resolveToken(c, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	chat, err := h.store.Chat(chatID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
		return
	}
	if !chat.HasParticipant(identity.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for chat"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      identity.UserID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.ClientIPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(chatID, conn, info)

	observability.IncWSActive("chat")
	observability.IncWSEvent("chat", "ws_connect")
	headers := observability.CorrelationHeaders(requestID, traceID)
	_ = observability.PublishEvent(ctx, chatEventsRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload(chatID, "ws_connect", info, "", 0),
	}, headers)

	// Keep connection alive and clean up on close.
	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(chatID, conn)
			observability.DecWSActive("chat")
			observability.IncWSEvent("chat", "ws_disconnect")
			_ = observability.PublishEvent(ctx, chatEventsRoutingKey, observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload(chatID, "ws_disconnect", info, closeReason, time.Since(info.ConnectedAt)),
			}, headers)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("chat", "ws_error")
					_ = observability.PublishEvent(ctx, chatEventsRoutingKey, observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsEventPayload(chatID, "ws_error", info, closeReason, time.Since(info.ConnectedAt)),
					}, headers)
				}
				return
			}
		}
	}()
}

func (h *ChatWebSocketHandler) resolveToken(c *gin.Context, header string) (session.Identity, error) {
	parts := strings.Split(header, " ")
	if len(parts) == 2 {
		return h.sessions.Resolve(c.Request.Context(), parts[1])
	}
	return session.Identity{}, fmt.Errorf("invalid token")
}
