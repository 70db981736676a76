package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatweb/chatweb-server/internal/service/users"
	"github.com/chatweb/chatweb-server/internal/store"
)

// UserHandlers provides HTTP handlers for the user directory.
type UserHandlers struct {
	users *users.Service
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *users.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		users: svc,
		log:   logger,
	}
}

// Online lists users currently online, excluding the requester.
// GET /api/users/online
func (h *UserHandlers) Online(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	online, err := h.users.Online(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list online users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": userResponses(online)})
}

// Search finds users by name or email, excluding the requester.
// GET /api/users/all?search=query
func (h *UserHandlers) Search(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	query := strings.TrimSpace(c.Query("search"))

	found, err := h.users.Search(c.Request.Context(), uid, query)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": userResponses(found)})
}

// Profile returns the requester's own account.
// GET /api/users/profile
func (h *UserHandlers) Profile(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.users.Profile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to load profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

func userResponses(in []*store.User) []UserResponse {
	out := make([]UserResponse, 0, len(in))
	for _, u := range in {
		out = append(out, userResponse(u))
	}
	return out
}
