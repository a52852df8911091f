package models

import "time"

// ChatKind distinguishes direct conversations from group rooms.
type ChatKind string

const (
	ChatKindDirect ChatKind = "direct"
	ChatKindGroup  ChatKind = "group"
)

// Chat represents a conversation. LastMessage is a denormalized copy of the
// chronologically latest message and is kept in sync with the flat message
// collection by the store.
type Chat struct {
	ID           string    `json:"id"`
	Kind         ChatKind  `json:"kind"`
	Participants []User    `json:"participants"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	UnreadCount  int       `json:"unread_count"`
	Name         string    `json:"name,omitempty"`
	IsAnonymous  bool      `json:"is_anonymous,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OtherParticipant resolves the direct-chat counterpart of the local user.
// It reports false for group chats and for chats where no such counterpart
// exists.
func (c Chat) OtherParticipant(localUserID string) (User, bool) {
	if c.Kind != ChatKindDirect {
		return User{}, false
	}
	for _, p := range c.Participants {
		if p.ID != localUserID {
			return p, true
		}
	}
	return User{}, false
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
