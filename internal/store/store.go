package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as an already-registered email.
var ErrDuplicate = errors.New("duplicate record")

// User represents a registered account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Avatar       string
	DateOfBirth  time.Time
	IsOnline     bool
	LastSeen     time.Time
	CreatedAt    time.Time
}

// MessageType defines the kind of message payload.
type MessageType string

const (
	MessageTypeText MessageType = "text"
)

// Message represents a persisted chat message between two users.
// IsRead and ReadAt transition false->true exactly once; nothing else
// mutates after creation.
type Message struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Content    string
	Type       MessageType
	IsRead     bool
	ReadAt     *time.Time
	CreatedAt  time.Time
}

// Conversation summarizes a message thread with one partner.
type Conversation struct {
	User        *User
	LastMessage *Message
	UnreadCount int64
}

// UserStore handles user persistence and directory lookups.
type UserStore interface {
	// CreateUser inserts a new account. Email must be unique.
	CreateUser(ctx context.Context, u *User) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SearchUsers finds users whose name or email contains the query,
	// case-insensitive. An empty query matches everyone.
	SearchUsers(ctx context.Context, query string, limit int) ([]*User, error)

	// ListOnline returns users currently flagged online.
	ListOnline(ctx context.Context) ([]*User, error)

	// SetOnline updates the online flag and last_seen timestamp.
	SetOnline(ctx context.Context, userID int64, online bool) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and fills in ID and CreatedAt.
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)

	// MarkConversationRead flips is_read on all unread messages from
	// senderID to receiverID, stamping them with readAt. Returns the
	// number of rows updated; zero matches is not an error.
	MarkConversationRead(ctx context.Context, senderID, receiverID int64, readAt time.Time) (int64, error)

	// ListConversation returns messages between two users (either
	// direction), newest first. If beforeID is set, only messages older
	// than that ID are returned.
	ListConversation(ctx context.Context, userA, userB int64, limit int, beforeID *int64) ([]*Message, error)

	// ListConversations returns one summary per partner the user has
	// exchanged messages with, most recent thread first.
	ListConversations(ctx context.Context, userID int64) ([]*Conversation, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
