package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"whisper-service/internal/models"
	"whisper-service/internal/session"
	"whisper-service/internal/store"
)

type ConversationsMock struct {
	mock.Mock
}

func (m *ConversationsMock) CreateChat(participant models.User) (models.Chat, error) {
	args := m.Called(participant)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ConversationsMock) SelectChat(chatID string) error {
	args := m.Called(chatID)
	return args.Error(0)
}

func (m *ConversationsMock) Send(chatID string, content string, attachments []models.Attachment, replyToID string) (models.Message, error) {
	args := m.Called(chatID, content, attachments, replyToID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ConversationsMock) Receive(chatID string, content string, attachments []models.Attachment) (models.Message, error) {
	args := m.Called(chatID, content, attachments)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ConversationsMock) AdvanceStatus(messageID string, status models.MessageStatus) error {
	args := m.Called(messageID, status)
	return args.Error(0)
}

func (m *ConversationsMock) DeleteMessage(messageID string) error {
	args := m.Called(messageID)
	return args.Error(0)
}

func (m *ConversationsMock) AddReaction(messageID string, reaction models.Reaction) error {
	args := m.Called(messageID, reaction)
	return args.Error(0)
}

func (m *ConversationsMock) Forward(messageID string, toChatID string) (models.Message, error) {
	args := m.Called(messageID, toChatID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *ConversationsMock) ChatList() []models.Chat {
	args := m.Called()
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats
}

func (m *ConversationsMock) Messages(chatID string) ([]models.Message, error) {
	args := m.Called(chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *ConversationsMock) Chat(chatID string) (models.Chat, error) {
	args := m.Called(chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ConversationsMock) ActiveChat() (models.Chat, bool) {
	args := m.Called()
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1)
}

func (m *ConversationsMock) Close() {
	m.Called()
}

type SessionProviderMock struct {
	mock.Mock
}

func (m *SessionProviderMock) Resolve(ctx context.Context, token string) (session.Identity, error) {
	args := m.Called(ctx, token)
	var identity session.Identity
	if val := args.Get(0); val != nil {
		identity = val.(session.Identity)
	}
	return identity, args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) PublishWithHeaders(ctx context.Context, routingKey string, event any, headers map[string]string) error {
	args := m.Called(ctx, routingKey, event, headers)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ store.Conversations = (*ConversationsMock)(nil)
var _ session.Provider = (*SessionProviderMock)(nil)
