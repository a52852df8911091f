package models

import "time"

// Presence is a user's availability indicator, independent of message delivery status.
type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
	PresenceAway    Presence = "away"
)

// User represents a chat participant. Immutable once fetched; presence is
// refreshed by an external collaborator.
type User struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Presence Presence   `json:"presence"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
