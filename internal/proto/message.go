package proto

import (
	"encoding/json"
	"time"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeSendMessage = "send_message"
	InboundTypeTyping      = "typing"
	InboundTypeMarkRead    = "mark_messages_read"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventUsersOnline  = "users_online"
	EventNewMessage   = "new_message"
	EventMessageSent  = "message_sent"
	EventUserTyping   = "user_typing"
	EventMessagesRead = "messages_read"
)

// SendMessageData asks the server to relay a message to a user.
type SendMessageData struct {
	ReceiverID  int64  `json:"receiverId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType,omitempty"`
}

// TypingData signals typing state toward a user.
type TypingData struct {
	ReceiverID int64 `json:"receiverId"`
	IsTyping   bool  `json:"isTyping"`
}

// MarkReadData asks the server to mark a sender's messages as read.
type MarkReadData struct {
	SenderID int64 `json:"senderId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserSummary is the public slice of a user embedded in events.
type UserSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// PresenceUser is one entry of a users_online view.
type PresenceUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
	IsOnline bool   `json:"isOnline"`
}

// EventMessage carries a persisted message to sender or receiver.
type EventMessage struct {
	ID          int64       `json:"id"`
	Sender      UserSummary `json:"sender"`
	Receiver    UserSummary `json:"receiver"`
	Content     string      `json:"content"`
	MessageType string      `json:"messageType"`
	IsRead      bool        `json:"isRead"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// EventTyping notifies the target that a user is typing.
type EventTyping struct {
	UserID   int64  `json:"userId"`
	UserName string `json:"userName"`
	IsTyping bool   `json:"isTyping"`
}

// EventRead notifies a sender that their messages were read.
type EventRead struct {
	ReadBy int64     `json:"readBy"`
	ReadAt time.Time `json:"readAt"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
