package core

import "github.com/chatweb/chatweb-server/internal/store"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage persists and relays a message to its receiver.
	CommandSendMessage CommandKind = iota
	// CommandTyping forwards an ephemeral typing signal.
	CommandTyping
	// CommandMarkRead marks a sender's messages to this client as read.
	CommandMarkRead
)

// Command represents an action requested by a client.
type Command struct {
	Kind CommandKind

	// ReceiverID addresses send_message and typing.
	ReceiverID  int64
	Content     string
	MessageType store.MessageType
	IsTyping    bool

	// SenderID addresses mark_messages_read: whose messages to flip.
	SenderID int64
}
