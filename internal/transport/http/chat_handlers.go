package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatweb/chatweb-server/internal/service/chat"
	"github.com/chatweb/chatweb-server/internal/store"
)

// ChatHandlers provides HTTP handlers for message history.
type ChatHandlers struct {
	chat *chat.Service
	log  *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(svc *chat.Service, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		chat: svc,
		log:  logger,
	}
}

// MessageResponse represents a persisted message in API responses.
type MessageResponse struct {
	ID          int64      `json:"id"`
	SenderID    int64      `json:"senderId"`
	ReceiverID  int64      `json:"receiverId"`
	Content     string     `json:"content"`
	MessageType string     `json:"messageType"`
	IsRead      bool       `json:"isRead"`
	ReadAt      *time.Time `json:"readAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// ConversationResponse summarizes a thread with one partner.
type ConversationResponse struct {
	User        UserResponse    `json:"user"`
	LastMessage MessageResponse `json:"lastMessage"`
	UnreadCount int64           `json:"unreadCount"`
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Content:     m.Content,
		MessageType: string(m.Type),
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

// Messages returns a page of the conversation with one partner and marks
// that partner's messages as read.
// GET /api/chat/messages/:userId?limit=&before=
func (h *ChatHandlers) Messages(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	partnerID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
	}

	var beforeID *int64
	if raw := c.Query("before"); raw != "" {
		before, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before cursor"})
			return
		}
		beforeID = &before
	}

	messages, err := h.chat.History(c.Request.Context(), uid, partnerID, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("partner_id", partnerID).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

// Conversations returns one summary per partner, most recent first.
// GET /api/chat/conversations
func (h *ChatHandlers) Conversations(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	conversations, err := h.chat.Conversations(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		out = append(out, ConversationResponse{
			User:        userResponse(conv.User),
			LastMessage: messageResponse(conv.LastMessage),
			UnreadCount: conv.UnreadCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}
