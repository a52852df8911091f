package demo

import (
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-service/internal/models"
	"whisper-service/internal/store"
)

func TestSeed(t *testing.T) {
	clk := clock.NewMock()
	s := store.New(models.User{ID: "local", Username: "anonymous_hawk"}, store.Options{
		Clock:  clk,
		Logger: zerolog.Nop(),
	})
	defer s.Close()

	r := rand.New(rand.NewSource(42))
	require.NoError(t, Seed(s, r, 5))

	chats := s.ChatList()
	require.Len(t, chats, 5)
	for _, chat := range chats {
		require.NotNil(t, chat.LastMessage)
		msgs, err := s.Messages(chat.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, msgs)
		assert.LessOrEqual(t, len(msgs), 8)
		for _, msg := range msgs {
			assert.True(t, msg.Status.Valid())
			if msg.Content == "" {
				assert.NotEmpty(t, msg.Attachments)
			}
		}
	}
}

func TestRandomUser(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	u := RandomUser(r)
	assert.NotEmpty(t, u.ID)
	assert.NotEmpty(t, u.Username)
	require.NotNil(t, u.LastSeen)
}

func TestRandomAttachment(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		att := RandomAttachment(r)
		assert.NotEmpty(t, att.ID)
		assert.NotEmpty(t, att.URL)
		assert.GreaterOrEqual(t, att.Size, int64(50_000))
		assert.Less(t, att.Size, int64(5_050_000))
		if att.Kind == models.AttachmentVideo {
			assert.NotEmpty(t, att.ThumbnailURL)
		} else {
			assert.Empty(t, att.ThumbnailURL)
		}
	}
}

func TestResponderMaybeReply(t *testing.T) {
	var replied []string
	var scheduled []func()

	resp := NewResponder(func(chatID, content string) {
		assert.NotEmpty(t, content)
		replied = append(replied, chatID)
	}, rand.New(rand.NewSource(1)), time.Second, 1.0, func(d time.Duration, f func()) {
		assert.Equal(t, time.Second, d)
		scheduled = append(scheduled, f)
	})

	resp.MaybeReply("c1")
	require.Len(t, scheduled, 1)
	assert.Empty(t, replied)

	scheduled[0]()
	assert.Equal(t, []string{"c1"}, replied)
}

func TestResponderZeroProbability(t *testing.T) {
	resp := NewResponder(func(string, string) {
		t.Fatal("reply must not fire")
	}, rand.New(rand.NewSource(1)), time.Second, 0, func(time.Duration, func()) {
		t.Fatal("schedule must not fire")
	})

	for i := 0; i < 20; i++ {
		resp.MaybeReply("c1")
	}
}
