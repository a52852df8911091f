package store

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whisper-service/internal/models"
)

func newTestStore(t *testing.T, opts ...func(*Options)) (*Store, *clock.Mock) {
	t.Helper()

	clk := clock.NewMock()
	options := Options{
		Clock:        clk,
		DeliverAfter: time.Second,
		ReadAfter:    3 * time.Second,
		Logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	s := New(models.User{ID: "local", Username: "anonymous_hawk"}, options)
	t.Cleanup(s.Close)
	return s, clk
}

func friend(id, username string) models.User {
	return models.User{ID: id, Username: username, Presence: models.PresenceOnline}
}

func TestCreateChat(t *testing.T) {
	s, _ := newTestStore(t)

	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	assert.NotEmpty(t, chat.ID)
	assert.Equal(t, models.ChatKindDirect, chat.Kind)
	require.Len(t, chat.Participants, 2)

	active, ok := s.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, chat.ID, active.ID)
}

func TestCreateChatReusesExistingDirectChat(t *testing.T) {
	s, _ := newTestStore(t)

	first, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	_, err = s.CreateChat(friend("u2", "pixel_ghost"))
	require.NoError(t, err)

	again, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, s.ChatList(), 2)

	active, ok := s.ActiveChat()
	require.True(t, ok)
	assert.Equal(t, first.ID, active.ID)
}

func TestCreateChatWithSelf(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.CreateChat(friend("local", "anonymous_hawk"))
	assert.ErrorIs(t, err, ErrSelfChat)
}

func TestSendValidation(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)

	_, err = s.Send("missing", "hello", nil, "")
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = s.Send(chat.ID, "   ", nil, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	att := models.Attachment{ID: "a1", Kind: models.AttachmentImage, URL: "https://example.com/p.jpg"}
	msg, err := s.Send(chat.ID, "", []models.Attachment{att}, "")
	require.NoError(t, err)
	assert.Empty(t, msg.Content)
	require.Len(t, msg.Attachments, 1)
}

func TestSendReply(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	other, err := s.CreateChat(friend("u2", "pixel_ghost"))
	require.NoError(t, err)

	original, err := s.Receive(chat.ID, "question?", nil)
	require.NoError(t, err)

	reply, err := s.Send(chat.ID, "answer", nil, original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.ID, reply.ReplyToID)

	// Replying across chats or to an unknown message is a caller bug.
	_, err = s.Send(other.ID, "answer", nil, original.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = s.Send(chat.ID, "answer", nil, "missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestSendReceiptLifecycle(t *testing.T) {
	s, clk := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)

	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msg.Status)
	assert.Equal(t, "local", msg.SenderID)
	assert.Equal(t, "u1", msg.ReceiverID)

	snapshot, err := s.Chat(chat.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.LastMessage)
	assert.Equal(t, models.StatusSent, snapshot.LastMessage.Status)

	clk.Add(time.Second)
	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msgs[0].Status)
	snapshot, err = s.Chat(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, snapshot.LastMessage.Status)

	clk.Add(2 * time.Second)
	msgs, err = s.Messages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, msgs[0].Status)
	snapshot, err = s.Chat(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, snapshot.LastMessage.Status)
}

func TestAdvanceStatusNeverRegresses(t *testing.T) {
	s, clk := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	clk.Add(3 * time.Second)

	// A late delivery acknowledgment after read is absorbed silently.
	require.NoError(t, s.AdvanceStatus(msg.ID, models.StatusDelivered))
	require.NoError(t, s.AdvanceStatus(msg.ID, models.StatusSent))

	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, msgs[0].Status)
}

func TestAdvanceStatusErrors(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.AdvanceStatus(msg.ID, "archived"), ErrInvalidStatus)
	assert.ErrorIs(t, s.AdvanceStatus("missing", models.StatusRead), ErrMessageNotFound)
}

func TestAdvanceStatusIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	require.NoError(t, s.AdvanceStatus(msg.ID, models.StatusDelivered))
	require.NoError(t, s.AdvanceStatus(msg.ID, models.StatusDelivered))

	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msgs[0].Status)
}

func TestOnStatusChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var transitions []models.MessageStatus

	var s *Store
	var clk *clock.Mock
	s, clk = newTestStore(t, func(o *Options) {
		o.OnStatusChange = func(chatID string, msg models.Message) {
			// Re-entering the store here must not deadlock.
			_, err := s.Chat(chatID)
			require.NoError(t, err)
			mu.Lock()
			transitions = append(transitions, msg.Status)
			mu.Unlock()
		}
	})

	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	_, err = s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	clk.Add(3 * time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.MessageStatus{models.StatusDelivered, models.StatusRead}, transitions)
}

func TestExternalReadCancelsPendingReceipts(t *testing.T) {
	var transitions []models.MessageStatus
	s, clk := newTestStore(t, func(o *Options) {
		o.OnStatusChange = func(_ string, msg models.Message) {
			transitions = append(transitions, msg.Status)
		}
	})

	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	// The counterpart reports read before the simulated receipts fire.
	require.NoError(t, s.AdvanceStatus(msg.ID, models.StatusRead))

	s.receipts.mu.Lock()
	assert.Empty(t, s.receipts.timers)
	s.receipts.mu.Unlock()

	clk.Add(time.Minute)
	assert.Equal(t, []models.MessageStatus{models.StatusRead}, transitions)
}

func TestReceiveIncrementsUnreadWhenInactive(t *testing.T) {
	s, _ := newTestStore(t)
	background, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	active, err := s.CreateChat(friend("u2", "pixel_ghost"))
	require.NoError(t, err)

	msg, err := s.Receive(background.ID, "psst", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, msg.Status)
	assert.Equal(t, "u1", msg.SenderID)
	assert.Equal(t, "local", msg.ReceiverID)

	msg, err = s.Receive(active.ID, "hey", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, msg.Status)

	chat, err := s.Chat(background.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, chat.UnreadCount)
	chat, err = s.Chat(active.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, chat.UnreadCount)
}

func TestSelectChatResetsOnlyOwnCounter(t *testing.T) {
	s, _ := newTestStore(t)
	first, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	second, err := s.CreateChat(friend("u2", "pixel_ghost"))
	require.NoError(t, err)
	_, err = s.CreateChat(friend("u3", "secret_raven"))
	require.NoError(t, err)

	_, err = s.Receive(first.ID, "one", nil)
	require.NoError(t, err)
	_, err = s.Receive(first.ID, "two", nil)
	require.NoError(t, err)
	_, err = s.Receive(second.ID, "three", nil)
	require.NoError(t, err)

	require.NoError(t, s.SelectChat(first.ID))

	chat, err := s.Chat(first.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, chat.UnreadCount)
	chat, err = s.Chat(second.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, chat.UnreadCount)

	assert.ErrorIs(t, s.SelectChat("missing"), ErrChatNotFound)
}

func TestDeleteMessageIsSoftAndIdempotent(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "regret this", nil, "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessage(msg.ID))
	require.NoError(t, s.DeleteMessage(msg.ID))

	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsDeleted)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.Equal(t, "regret this", msgs[0].Content)

	snapshot, err := s.Chat(chat.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.LastMessage)
	assert.Equal(t, msg.ID, snapshot.LastMessage.ID)
	assert.True(t, snapshot.LastMessage.IsDeleted)

	assert.ErrorIs(t, s.DeleteMessage("missing"), ErrMessageNotFound)
}

func TestDeletedMessageStillAdvances(t *testing.T) {
	s, clk := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "gone soon", nil, "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteMessage(msg.ID))
	clk.Add(3 * time.Second)

	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	assert.True(t, msgs[0].IsDeleted)
	assert.Equal(t, models.StatusRead, msgs[0].Status)
}

func TestAddReaction(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	require.NoError(t, s.AddReaction(msg.ID, models.Reaction{UserID: "u1", Emoji: "🔥"}))

	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	require.Len(t, msgs[0].Reactions, 1)
	assert.Equal(t, "🔥", msgs[0].Reactions[0].Emoji)
	assert.False(t, msgs[0].Reactions[0].Timestamp.IsZero())

	snapshot, err := s.Chat(chat.ID)
	require.NoError(t, err)
	require.Len(t, snapshot.LastMessage.Reactions, 1)

	require.NoError(t, s.DeleteMessage(msg.ID))
	err = s.AddReaction(msg.ID, models.Reaction{UserID: "u1", Emoji: "👍"})
	assert.ErrorIs(t, err, ErrMessageDeleted)
}

func TestForward(t *testing.T) {
	s, clk := newTestStore(t)
	source, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	target, err := s.CreateChat(friend("u2", "pixel_ghost"))
	require.NoError(t, err)

	original, err := s.Receive(source.ID, "look at this", nil)
	require.NoError(t, err)

	forwarded, err := s.Forward(original.ID, target.ID)
	require.NoError(t, err)
	assert.NotEqual(t, original.ID, forwarded.ID)
	assert.Equal(t, target.ID, forwarded.ChatID)
	assert.Equal(t, "look at this", forwarded.Content)
	assert.True(t, forwarded.IsForwarded)
	assert.Equal(t, models.StatusSent, forwarded.Status)

	snapshot, err := s.Chat(target.ID)
	require.NoError(t, err)
	require.NotNil(t, snapshot.LastMessage)
	assert.Equal(t, forwarded.ID, snapshot.LastMessage.ID)

	// The forwarded copy picks up its own receipts.
	clk.Add(3 * time.Second)
	msgs, err := s.Messages(target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, msgs[0].Status)

	_, err = s.Forward("missing", target.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = s.Forward(original.ID, "missing")
	assert.ErrorIs(t, err, ErrChatNotFound)

	require.NoError(t, s.DeleteMessage(original.ID))
	_, err = s.Forward(original.ID, target.ID)
	assert.ErrorIs(t, err, ErrMessageDeleted)
}

func TestChatListOrdering(t *testing.T) {
	s, clk := newTestStore(t)
	first, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	second, err := s.CreateChat(friend("u2", "pixel_ghost"))
	require.NoError(t, err)
	third, err := s.CreateChat(friend("u3", "secret_raven"))
	require.NoError(t, err)
	fourth, err := s.CreateChat(friend("u4", "void_whisper"))
	require.NoError(t, err)

	_, err = s.Send(first.ID, "older", nil, "")
	require.NoError(t, err)
	clk.Add(time.Minute)
	_, err = s.Send(second.ID, "newer", nil, "")
	require.NoError(t, err)

	list := s.ChatList()
	require.Len(t, list, 4)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	// Chats without messages trail in creation order.
	assert.Equal(t, third.ID, list[2].ID)
	assert.Equal(t, fourth.ID, list[3].ID)
	assert.Nil(t, list[2].LastMessage)
	assert.Nil(t, list[3].LastMessage)
}

func TestChatListSnapshotIsolation(t *testing.T) {
	s, _ := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	_, err = s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	list := s.ChatList()
	require.Len(t, list, 1)
	list[0].LastMessage.Content = "tampered"
	list[0].Participants[0].Username = "tampered"

	snapshot, err := s.Chat(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", snapshot.LastMessage.Content)
	assert.Equal(t, "anonymous_hawk", snapshot.Participants[0].Username)
}

func TestCloseStopsPendingReceipts(t *testing.T) {
	s, clk := newTestStore(t)
	chat, err := s.CreateChat(friend("u1", "silent_fox"))
	require.NoError(t, err)
	msg, err := s.Send(chat.ID, "hello", nil, "")
	require.NoError(t, err)

	s.Close()
	clk.Add(time.Minute)

	msgs, err := s.Messages(chat.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusSent, msgs[0].Status)
	assert.Equal(t, msg.ID, msgs[0].ID)
}

func TestMessagesUnknownChat(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Messages("missing")
	assert.ErrorIs(t, err, ErrChatNotFound)
	_, err = s.Chat("missing")
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, ok := s.ActiveChat()
	assert.False(t, ok)
}
