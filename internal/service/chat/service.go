package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/chatweb/chatweb-server/internal/store"
)

const defaultPageSize = 50

// Service provides message history and conversation summaries.
type Service struct {
	store store.MessageStore
}

// New creates a new chat history service.
func New(st store.MessageStore) *Service {
	return &Service{store: st}
}

// History returns a page of the conversation between userID and
// partnerID, oldest first within the page, and marks the partner's
// messages to userID as read. Fetching a conversation implies the
// reader has seen it.
func (s *Service) History(ctx context.Context, userID, partnerID int64, limit int, beforeID *int64) ([]*store.Message, error) {
	if limit <= 0 || limit > defaultPageSize {
		limit = defaultPageSize
	}

	messages, err := s.store.ListConversation(ctx, userID, partnerID, limit, beforeID)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	if _, err := s.store.MarkConversationRead(ctx, partnerID, userID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("mark conversation read: %w", err)
	}

	// Store returns newest first for keyset pagination; clients render
	// oldest first.
	reverse(messages)
	return messages, nil
}

// Conversations returns one summary per partner, most recent first.
func (s *Service) Conversations(ctx context.Context, userID int64) ([]*store.Conversation, error) {
	conversations, err := s.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

func reverse(msgs []*store.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
