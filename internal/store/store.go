package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"whisper-service/internal/models"
)

// Conversations is the contract the rendering and transport layers program
// against. All operations are synchronous and either fully apply or return a
// documented no-op/error; there is no partial-failure path.
type Conversations interface {
	CreateChat(participant models.User) (models.Chat, error)
	SelectChat(chatID string) error
	Send(chatID string, content string, attachments []models.Attachment, replyToID string) (models.Message, error)
	Receive(chatID string, content string, attachments []models.Attachment) (models.Message, error)
	AdvanceStatus(messageID string, status models.MessageStatus) error
	DeleteMessage(messageID string) error
	AddReaction(messageID string, reaction models.Reaction) error
	Forward(messageID string, toChatID string) (models.Message, error)
	ChatList() []models.Chat
	Messages(chatID string) ([]models.Message, error)
	Chat(chatID string) (models.Chat, error)
	ActiveChat() (models.Chat, bool)
	Close()
}

// Options configure the optional collaborators of a Store.
type Options struct {
	// Clock drives timestamps and the simulated acknowledgment timers. Tests
	// pass a mock clock to advance virtual time deterministically.
	Clock clock.Clock

	// DeliverAfter and ReadAfter are the simulated acknowledgment delays for
	// outbound messages. ReadAfter must be strictly larger than DeliverAfter
	// so a message's own transitions fire in order.
	DeliverAfter time.Duration
	ReadAfter    time.Duration

	// OnStatusChange is invoked after a status transition has been applied,
	// outside the store lock, with a snapshot of the updated message.
	OnStatusChange func(chatID string, msg models.Message)

	Logger zerolog.Logger
}

// Store owns the in-memory chats and messages of one user session. A single
// mutex guards both the flat message collections and the denormalized
// lastMessage copies, so readers never observe the two diverged.
type Store struct {
	mu       sync.RWMutex
	local    models.User
	clk      clock.Clock
	receipts *receipts
	onStatus func(chatID string, msg models.Message)
	log      zerolog.Logger

	chats     map[string]*conversation
	order     []string
	chatByMsg map[string]string
	active    string
}

type conversation struct {
	chat     models.Chat
	messages []models.Message
}

// New builds a Store for the given local session user.
func New(local models.User, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.DeliverAfter <= 0 {
		opts.DeliverAfter = time.Second
	}
	if opts.ReadAfter <= opts.DeliverAfter {
		opts.ReadAfter = opts.DeliverAfter + 2*time.Second
	}
	s := &Store{
		local:     local,
		clk:       opts.Clock,
		onStatus:  opts.OnStatusChange,
		log:       opts.Logger,
		chats:     make(map[string]*conversation),
		chatByMsg: make(map[string]string),
	}
	s.receipts = newReceipts(opts.Clock, opts.DeliverAfter, opts.ReadAfter)
	return s
}

// LocalUser returns the session user the store was built for.
func (s *Store) LocalUser() models.User {
	return s.local
}

// CreateChat starts a direct chat between the local user and participant and
// makes it the active chat. An existing direct chat with the same participant
// is reused instead of duplicated.
func (s *Store) CreateChat(participant models.User) (models.Chat, error) {
	if participant.ID == s.local.ID {
		return models.Chat{}, ErrSelfChat
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		conv := s.chats[id]
		other, ok := conv.chat.OtherParticipant(s.local.ID)
		if ok && other.ID == participant.ID {
			s.active = id
			conv.chat.UnreadCount = 0
			return cloneChat(conv.chat), nil
		}
	}

	chat := models.Chat{
		ID:           uuid.NewString(),
		Kind:         models.ChatKindDirect,
		Participants: []models.User{s.local, participant},
		CreatedAt:    s.clk.Now(),
	}
	s.chats[chat.ID] = &conversation{chat: chat}
	s.order = append(s.order, chat.ID)
	s.active = chat.ID
	return cloneChat(chat), nil
}

// SelectChat marks the chat as active and resets its unread counter. Other
// chats' counters are untouched.
func (s *Store) SelectChat(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[chatID]
	if !ok {
		return ErrChatNotFound
	}
	s.active = chatID
	conv.chat.UnreadCount = 0
	return nil
}

// Send creates an outbound message with status "sent", appends it to the chat
// and schedules the simulated delivery/read acknowledgments. The created
// message is returned synchronously; transitions land later. A non-empty
// replyToID must reference a message in the same chat.
func (s *Store) Send(chatID string, content string, attachments []models.Attachment, replyToID string) (models.Message, error) {
	s.mu.Lock()
	conv, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return models.Message{}, ErrChatNotFound
	}
	receiver, ok := conv.chat.OtherParticipant(s.local.ID)
	if !ok {
		s.mu.Unlock()
		return models.Message{}, ErrNoRecipient
	}
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		s.mu.Unlock()
		return models.Message{}, ErrEmptyMessage
	}
	if replyToID != "" && s.chatByMsg[replyToID] != chatID {
		s.mu.Unlock()
		return models.Message{}, ErrMessageNotFound
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		SenderID:    s.local.ID,
		ReceiverID:  receiver.ID,
		Content:     content,
		Status:      models.StatusSent,
		Attachments: append([]models.Attachment(nil), attachments...),
		ReplyToID:   replyToID,
		CreatedAt:   s.clk.Now(),
	}
	s.appendLocked(conv, msg)
	s.mu.Unlock()

	s.receipts.schedule(msg.ID, func(status models.MessageStatus) {
		if err := s.AdvanceStatus(msg.ID, status); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("receipt advance failed")
		}
	})
	return msg, nil
}

// Receive appends an inbound message from the chat's counterpart. While the
// chat is not active the unread counter is incremented; an inbound message
// arriving into the active chat counts as read immediately.
func (s *Store) Receive(chatID string, content string, attachments []models.Attachment) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.chats[chatID]
	if !ok {
		return models.Message{}, ErrChatNotFound
	}
	sender, ok := conv.chat.OtherParticipant(s.local.ID)
	if !ok {
		return models.Message{}, ErrNoRecipient
	}
	if strings.TrimSpace(content) == "" && len(attachments) == 0 {
		return models.Message{}, ErrEmptyMessage
	}

	status := models.StatusDelivered
	if s.active == chatID {
		status = models.StatusRead
	} else {
		conv.chat.UnreadCount++
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		SenderID:    sender.ID,
		ReceiverID:  s.local.ID,
		Content:     content,
		Status:      status,
		Attachments: append([]models.Attachment(nil), attachments...),
		CreatedAt:   s.clk.Now(),
	}
	s.appendLocked(conv, msg)
	return msg, nil
}

// AdvanceStatus moves a message forward in the sent < delivered < read order.
// Earlier-or-equal statuses are absorbed silently so duplicate acknowledgments
// stay idempotent. Both the flat collection and the lastMessage alias are
// updated under one lock.
func (s *Store) AdvanceStatus(messageID string, status models.MessageStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	conv, msg := s.findLocked(messageID)
	if msg == nil {
		s.mu.Unlock()
		return ErrMessageNotFound
	}
	if !msg.Status.Before(status) {
		s.mu.Unlock()
		return nil
	}
	msg.Status = status
	s.syncLastMessageLocked(conv, *msg)
	chatID, snapshot := conv.chat.ID, *msg
	s.mu.Unlock()

	// Read is terminal; any simulated receipts still pending are redundant.
	if status == models.StatusRead {
		s.receipts.cancel(messageID)
	}

	if s.onStatus != nil {
		s.onStatus(chatID, snapshot)
	}
	return nil
}

// DeleteMessage performs a one-way soft delete. The entry keeps its id,
// position and content in the store; pending receipts are left alone since
// status may still advance for read-receipt purposes.
func (s *Store) DeleteMessage(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, msg := s.findLocked(messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.IsDeleted {
		return nil
	}
	msg.IsDeleted = true
	s.syncLastMessageLocked(conv, *msg)
	return nil
}

// AddReaction appends a reaction to a message.
func (s *Store) AddReaction(messageID string, reaction models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, msg := s.findLocked(messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.IsDeleted {
		return ErrMessageDeleted
	}
	if reaction.Timestamp.IsZero() {
		reaction.Timestamp = s.clk.Now()
	}
	msg.Reactions = append(msg.Reactions, reaction)
	s.syncLastMessageLocked(conv, *msg)
	return nil
}

// Forward copies a message's content into another chat as a fresh outbound
// message marked as forwarded. The copy starts at "sent" and gets its own
// simulated acknowledgments.
func (s *Store) Forward(messageID string, toChatID string) (models.Message, error) {
	s.mu.Lock()
	_, src := s.findLocked(messageID)
	if src == nil {
		s.mu.Unlock()
		return models.Message{}, ErrMessageNotFound
	}
	if src.IsDeleted {
		s.mu.Unlock()
		return models.Message{}, ErrMessageDeleted
	}
	target, ok := s.chats[toChatID]
	if !ok {
		s.mu.Unlock()
		return models.Message{}, ErrChatNotFound
	}
	receiver, ok := target.chat.OtherParticipant(s.local.ID)
	if !ok {
		s.mu.Unlock()
		return models.Message{}, ErrNoRecipient
	}

	msg := models.Message{
		ID:          uuid.NewString(),
		ChatID:      toChatID,
		SenderID:    s.local.ID,
		ReceiverID:  receiver.ID,
		Content:     src.Content,
		Status:      models.StatusSent,
		IsForwarded: true,
		Attachments: append([]models.Attachment(nil), src.Attachments...),
		CreatedAt:   s.clk.Now(),
	}
	s.appendLocked(target, msg)
	s.mu.Unlock()

	s.receipts.schedule(msg.ID, func(status models.MessageStatus) {
		if err := s.AdvanceStatus(msg.ID, status); err != nil {
			s.log.Warn().Err(err).Str("message_id", msg.ID).Msg("receipt advance failed")
		}
	})
	return msg, nil
}

// ChatList projects the chats ordered by lastMessage timestamp descending.
// Chats without a message sort after all chats with one, in insertion order,
// so the projection stays deterministic.
func (s *Store) ChatList() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	withLast := make([]models.Chat, 0, len(s.order))
	empty := make([]models.Chat, 0)
	for _, id := range s.order {
		chat := cloneChat(s.chats[id].chat)
		if chat.LastMessage != nil {
			withLast = append(withLast, chat)
		} else {
			empty = append(empty, chat)
		}
	}
	sort.SliceStable(withLast, func(i, j int) bool {
		return withLast[i].LastMessage.CreatedAt.After(withLast[j].LastMessage.CreatedAt)
	})
	return append(withLast, empty...)
}

// Messages returns a chronological copy of the chat's flat message collection.
func (s *Store) Messages(chatID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	return append([]models.Message(nil), conv.messages...), nil
}

// Chat returns a snapshot of a single chat.
func (s *Store) Chat(chatID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, ErrChatNotFound
	}
	return cloneChat(conv.chat), nil
}

// ActiveChat returns the currently selected chat, if any.
func (s *Store) ActiveChat() (models.Chat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.chats[s.active]
	if !ok {
		return models.Chat{}, false
	}
	return cloneChat(conv.chat), true
}

// Close cancels every pending acknowledgment timer so a torn-down session
// never mutates state after the fact.
func (s *Store) Close() {
	s.receipts.close()
}

// appendLocked adds the message to the flat collection and refreshes the
// lastMessage alias. Caller holds the write lock.
func (s *Store) appendLocked(conv *conversation, msg models.Message) {
	conv.messages = append(conv.messages, msg)
	s.chatByMsg[msg.ID] = conv.chat.ID
	last := msg
	conv.chat.LastMessage = &last
}

// findLocked resolves a message id to its conversation and a pointer into the
// flat collection. Caller holds the write lock.
func (s *Store) findLocked(messageID string) (*conversation, *models.Message) {
	chatID, ok := s.chatByMsg[messageID]
	if !ok {
		return nil, nil
	}
	conv := s.chats[chatID]
	for i := range conv.messages {
		if conv.messages[i].ID == messageID {
			return conv, &conv.messages[i]
		}
	}
	return nil, nil
}

// syncLastMessageLocked refreshes the lastMessage alias when it references the
// mutated message, so the two copies never diverge.
func (s *Store) syncLastMessageLocked(conv *conversation, msg models.Message) {
	if conv.chat.LastMessage != nil && conv.chat.LastMessage.ID == msg.ID {
		last := msg
		conv.chat.LastMessage = &last
	}
}

func cloneChat(chat models.Chat) models.Chat {
	out := chat
	out.Participants = append([]models.User(nil), chat.Participants...)
	if chat.LastMessage != nil {
		last := *chat.LastMessage
		out.LastMessage = &last
	}
	return out
}
