package models

import "time"

// MessageStatus is the delivery state of a message. It only moves forward:
// sent -> delivered -> read.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// Valid reports whether s is a known delivery status.
func (s MessageStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Before reports whether s orders strictly before other.
func (s MessageStatus) Before(other MessageStatus) bool {
	return statusRank[s] < statusRank[other]
}

// AttachmentKind is the media kind of an attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
	AttachmentAudio AttachmentKind = "audio"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is an immutable media reference carried by a message. Upload and
// transcoding live outside this service.
type Attachment struct {
	ID           string         `json:"id"`
	Kind         AttachmentKind `json:"kind"`
	URL          string         `json:"url"`
	Name         string         `json:"name"`
	Size         int64          `json:"size"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
}

// Reaction is an emoji reaction attached to a message.
type Reaction struct {
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	Timestamp time.Time `json:"timestamp"`
}

// Message represents a chat message. A deleted message keeps its id and
// position; only display layers suppress its content.
type Message struct {
	ID          string        `json:"id"`
	ChatID      string        `json:"chat_id"`
	SenderID    string        `json:"sender_id"`
	ReceiverID  string        `json:"receiver_id,omitempty"`
	Content     string        `json:"content"`
	Status      MessageStatus `json:"status"`
	IsDeleted   bool          `json:"is_deleted"`
	IsForwarded bool          `json:"is_forwarded,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Reactions   []Reaction    `json:"reactions,omitempty"`
	ReplyToID   string        `json:"reply_to_id,omitempty"`
	ExpiresAt   *time.Time    `json:"expires_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// IsOwn reports whether the message was written by the local session user.
// Derived, never stored.
func (m Message) IsOwn(localUserID string) bool {
	return m.SenderID == localUserID
}

// ChatEvent is broadcasted through websockets.
type ChatEvent struct {
	Type      string        `json:"type"`
	Message   *Message      `json:"message,omitempty"`
	MessageID string        `json:"message_id,omitempty"`
	Status    MessageStatus `json:"status,omitempty"`
	Reaction  *Reaction     `json:"reaction,omitempty"`
}
