package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"whisper-service/internal/format"
	"whisper-service/internal/models"
	"whisper-service/internal/observability"
	"whisper-service/internal/store"
	"whisper-service/internal/telemetry"
	"whisper-service/internal/ws"
)

// Responder optionally schedules a simulated reply after an outbound message,
// standing in for the remote party during demos.
type Responder interface {
	MaybeReply(chatID string)
}

// ConversationHandler maps the HTTP surface onto the conversation store.
type ConversationHandler struct {
	store     store.Conversations
	hub       *ws.Hub
	audit     *telemetry.AuditEmitter
	responder Responder
}

// NewConversationHandler builds a ConversationHandler. audit and responder
// may be nil.
func NewConversationHandler(conversations store.Conversations, hub *ws.Hub, audit *telemetry.AuditEmitter, responder Responder) *ConversationHandler {
	return &ConversationHandler{
		store:     conversations,
		hub:       hub,
		audit:     audit,
		responder: responder,
	}
}

// ListChats returns the chat-list projection: most recent conversation first,
// chats without messages at the end.
func (h *ConversationHandler) ListChats(c *gin.Context) {
	userID := c.GetString("userID")
	now := time.Now()

	type chatResponse struct {
		ChatID           string          `json:"chat_id"`
		Kind             models.ChatKind `json:"kind"`
		FriendID         string          `json:"friend_id,omitempty"`
		FriendUsername   string          `json:"friend_username,omitempty"`
		FriendPresence   models.Presence `json:"friend_presence,omitempty"`
		LastMessage      *models.Message `json:"last_message,omitempty"`
		LastMessageLabel string          `json:"last_message_label,omitempty"`
		UnreadCount      int             `json:"unread_count"`
		IsAnonymous      bool            `json:"is_anonymous,omitempty"`
		CreatedAt        time.Time       `json:"created_at"`
	}

	chats := h.store.ChatList()
	responses := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		resp := chatResponse{
			ChatID:      chat.ID,
			Kind:        chat.Kind,
			LastMessage: chat.LastMessage,
			UnreadCount: chat.UnreadCount,
			IsAnonymous: chat.IsAnonymous,
			CreatedAt:   chat.CreatedAt,
		}
		if friend, ok := chat.OtherParticipant(userID); ok {
			resp.FriendID = friend.ID
			resp.FriendUsername = friend.Username
			resp.FriendPresence = friend.Presence
		}
		if chat.LastMessage != nil {
			resp.LastMessageLabel = format.TimeLabel(now, chat.LastMessage.CreatedAt)
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, gin.H{"chats": responses})
}

// CreateChat starts (or reuses) a direct chat with the given participant and
// makes it active.
func (h *ConversationHandler) CreateChat(c *gin.Context) {
	var req struct {
		ParticipantID string          `json:"participant_id" binding:"required"`
		Username      string          `json:"username" binding:"required"`
		Presence      models.Presence `json:"presence"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant := models.User{ID: req.ParticipantID, Username: req.Username, Presence: req.Presence}
	chat, err := h.store.CreateChat(participant)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	h.emitAudit(c, "INFO", "chat created")
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// SelectChat marks a chat active and clears its unread counter.
func (h *ConversationHandler) SelectChat(c *gin.Context) {
	if err := h.store.SelectChat(c.Param("chat_id")); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetChatMessages returns the chat's messages in chronological order with the
// derived ownership flag.
func (h *ConversationHandler) GetChatMessages(c *gin.Context) {
	userID := c.GetString("userID")

	msgs, err := h.store.Messages(c.Param("chat_id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	type messageResponse struct {
		models.Message
		IsOwn bool `json:"is_own"`
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, messageResponse{Message: m, IsOwn: m.IsOwn(userID)})
	}

	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// PostChatMessage sends a message into the chat and broadcasts it.
func (h *ConversationHandler) PostChatMessage(c *gin.Context) {
	chatID := c.Param("chat_id")

	var req struct {
		Content     string              `json:"content"`
		Attachments []models.Attachment `json:"attachments"`
		ReplyToID   string              `json:"reply_to_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.store.Send(chatID, req.Content, req.Attachments, req.ReplyToID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	observability.IncMessage("sent")
	h.hub.BroadcastMessage(chatID, msg)
	h.emitAudit(c, "INFO", "message sent")
	if h.responder != nil {
		h.responder.MaybeReply(chatID)
	}
	c.JSON(http.StatusCreated, msg)
}

// PostInboundMessage applies a message from the remote party. This is the
// entry point a real transport provider would call; demos drive it directly.
func (h *ConversationHandler) PostInboundMessage(c *gin.Context) {
	chatID := c.Param("chat_id")

	var req struct {
		Content     string              `json:"content"`
		Attachments []models.Attachment `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.store.Receive(chatID, req.Content, req.Attachments)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	observability.IncMessage("received")
	h.hub.BroadcastMessage(chatID, msg)
	c.JSON(http.StatusCreated, msg)
}

// AdvanceMessageStatus applies a delivery/read acknowledgment. Stale
// acknowledgments are absorbed and still answer 204.
func (h *ConversationHandler) AdvanceMessageStatus(c *gin.Context) {
	var req struct {
		Status models.MessageStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.AdvanceStatus(c.Param("message_id"), req.Status); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteMessage soft-deletes a message for everyone and broadcasts the event.
func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	messageID := c.Param("message_id")

	if err := h.store.DeleteMessage(messageID); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	observability.IncMessageDeleted()
	h.hub.BroadcastDeletion(chatID, messageID)
	h.emitAudit(c, "INFO", "message deleted")
	c.Status(http.StatusNoContent)
}

// ReactToMessage appends an emoji reaction and broadcasts it.
func (h *ConversationHandler) ReactToMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	messageID := c.Param("message_id")

	var req struct {
		Emoji string `json:"emoji" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reaction := models.Reaction{UserID: c.GetString("userID"), Emoji: req.Emoji}
	if err := h.store.AddReaction(messageID, reaction); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	h.hub.BroadcastReaction(chatID, messageID, reaction)
	c.Status(http.StatusCreated)
}

// ForwardMessage copies a message into another chat.
func (h *ConversationHandler) ForwardMessage(c *gin.Context) {
	messageID := c.Param("message_id")

	var req struct {
		ToChatID string `json:"to_chat_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.store.Forward(messageID, req.ToChatID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	observability.IncMessage("forwarded")
	h.hub.BroadcastMessage(req.ToChatID, msg)
	h.emitAudit(c, "INFO", "message forwarded")
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), c.GetString("userID"))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, store.ErrChatNotFound), errors.Is(err, store.ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNoRecipient), errors.Is(err, store.ErrMessageDeleted):
		return http.StatusConflict
	case errors.Is(err, store.ErrEmptyMessage), errors.Is(err, store.ErrInvalidStatus), errors.Is(err, store.ErrSelfChat):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
