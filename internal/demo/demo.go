// Package demo generates mock conversation data so the service can be
// exercised without any real backend. The pools mirror the product's
// anonymous-handle naming.
package demo

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"whisper-service/internal/models"
	"whisper-service/internal/store"
)

var usernames = []string{
	"anonymous_hawk", "silent_fox", "pixel_ghost", "quantum_shadow",
	"hidden_lotus", "cipher_pulse", "secret_raven", "void_whisper",
	"cryptic_echo", "phantom_byte", "mystic_cloak", "stealth_nova",
	"unknown_entity", "masked_nebula", "shadow_drift", "enigma_wave",
}

var messageContents = []string{
	"Hey there!",
	"How's it going?",
	"Did you see the latest update?",
	"I'm thinking of changing my username soon.",
	"Remember, this chat will disappear in 24 hours.",
	"Can we talk about something important?",
	"Check out this new feature I found.",
	"Thoughts on the new security measures?",
	"This app is getting better with each update!",
	"Glad we can chat anonymously here.",
	"What do you think of the group chat option?",
	"Have you tried sharing media files yet?",
	"I like how we can delete messages for both sides.",
	"Might go anonymous for a while.",
	"The custom themes are a nice touch.",
}

var attachmentNames = []string{"photo.jpg", "screenshot.png", "document.pdf", "video.mp4", "voice.mp3"}

var emojis = []string{"👍", "❤️", "😂", "😮", "🔥"}

var attachmentKinds = []models.AttachmentKind{
	models.AttachmentImage,
	models.AttachmentVideo,
	models.AttachmentAudio,
	models.AttachmentFile,
}

var presences = []models.Presence{
	models.PresenceOnline,
	models.PresenceOffline,
	models.PresenceAway,
}

// RandomUser generates a mock participant.
func RandomUser(r *rand.Rand) models.User {
	lastSeen := time.Now().Add(-time.Duration(r.Intn(10000)) * time.Second)
	return models.User{
		ID:       uuid.NewString(),
		Username: fmt.Sprintf("%s_%03d", usernames[r.Intn(len(usernames))], r.Intn(1000)),
		Presence: presences[r.Intn(len(presences))],
		LastSeen: &lastSeen,
	}
}

// RandomContent picks a message text from the pool.
func RandomContent(r *rand.Rand) string {
	return messageContents[r.Intn(len(messageContents))]
}

// RandomAttachment generates a mock media reference, 50 KB to 5 MB.
func RandomAttachment(r *rand.Rand) models.Attachment {
	kind := attachmentKinds[r.Intn(len(attachmentKinds))]
	att := models.Attachment{
		ID:   uuid.NewString(),
		Kind: kind,
		URL:  fmt.Sprintf("https://picsum.photos/%d/%d", 500+100*r.Intn(5), 500+100*r.Intn(4)),
		Name: attachmentNames[r.Intn(len(attachmentNames))],
		Size: int64(r.Intn(5_000_000)) + 50_000,
	}
	if kind == models.AttachmentVideo {
		att.ThumbnailURL = "https://picsum.photos/300/200"
	}
	return att
}

// Seed populates the store with count mock conversations, each holding a few
// exchanged messages. Outbound messages pick up their simulated receipts from
// the store as usual.
func Seed(s store.Conversations, r *rand.Rand, count int) error {
	for i := 0; i < count; i++ {
		participant := RandomUser(r)
		chat, err := s.CreateChat(participant)
		if err != nil {
			return fmt.Errorf("seed chat %d: %w", i, err)
		}

		messages := r.Intn(8) + 1
		for j := 0; j < messages; j++ {
			var attachments []models.Attachment
			if r.Float64() > 0.8 {
				attachments = []models.Attachment{RandomAttachment(r)}
			}
			var msg models.Message
			if r.Float64() > 0.5 {
				msg, err = s.Send(chat.ID, RandomContent(r), attachments, "")
			} else {
				msg, err = s.Receive(chat.ID, RandomContent(r), attachments)
			}
			if err != nil {
				return fmt.Errorf("seed chat %d message %d: %w", i, j, err)
			}
			if r.Float64() > 0.8 {
				reaction := models.Reaction{UserID: participant.ID, Emoji: emojis[r.Intn(len(emojis))]}
				if err := s.AddReaction(msg.ID, reaction); err != nil {
					return fmt.Errorf("seed chat %d reaction: %w", i, err)
				}
			}
		}
	}
	return nil
}

// ReplyFunc applies a simulated inbound reply; typically store.Receive plus
// whatever broadcasting the wiring layer wants.
type ReplyFunc func(chatID string, content string)

// Responder simulates the remote party answering outbound messages after a
// short delay, with a fixed probability.
type Responder struct {
	reply       ReplyFunc
	r           *rand.Rand
	delay       time.Duration
	probability float64
	schedule    func(d time.Duration, f func())
}

// NewResponder builds a Responder. schedule is typically clock.AfterFunc
// wrapped; tests pass a synchronous stub.
func NewResponder(reply ReplyFunc, r *rand.Rand, delay time.Duration, probability float64, schedule func(d time.Duration, f func())) *Responder {
	return &Responder{
		reply:       reply,
		r:           r,
		delay:       delay,
		probability: probability,
		schedule:    schedule,
	}
}

// MaybeReply schedules a mock inbound reply for the chat.
func (resp *Responder) MaybeReply(chatID string) {
	if resp.r.Float64() >= resp.probability {
		return
	}
	content := RandomContent(resp.r)
	resp.schedule(resp.delay, func() {
		resp.reply(chatID, content)
	})
}
