package core

import (
	"time"

	"github.com/chatweb/chatweb-server/internal/store"
)

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventUsersOnline delivers the full online set, self excluded.
	EventUsersOnline EventKind = iota
	// EventNewMessage delivers a persisted message to its receiver.
	EventNewMessage
	// EventMessageSent confirms a persisted message to its sender.
	EventMessageSent
	// EventUserTyping forwards an ephemeral typing signal.
	EventUserTyping
	// EventMessagesRead notifies a sender their messages were read.
	EventMessagesRead
	// EventError notifies the originating client about a failed operation.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind EventKind

	// Users holds the presence view for EventUsersOnline.
	Users []Identity

	// Message plus sender/receiver snapshots for message events.
	Message *store.Message
	From    Identity
	To      Identity

	// IsTyping accompanies EventUserTyping (From identifies who types).
	IsTyping bool

	// ReadBy and ReadAt accompany EventMessagesRead.
	ReadBy int64
	ReadAt time.Time

	Error *CoreError
}
