package store

import "errors"

var (
	// ErrChatNotFound and ErrMessageNotFound indicate a caller bug: ids are
	// only ever obtained from prior store reads.
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")

	// ErrNoRecipient is signaled when a send targets a chat without a
	// resolvable direct-chat counterpart. The send is dropped.
	ErrNoRecipient = errors.New("chat has no recipient")

	ErrEmptyMessage   = errors.New("message needs content or an attachment")
	ErrInvalidStatus  = errors.New("invalid message status")
	ErrMessageDeleted = errors.New("message is deleted")
	ErrSelfChat       = errors.New("cannot create chat with yourself")
)
