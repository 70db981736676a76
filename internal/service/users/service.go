package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatweb/chatweb-server/internal/store"
)

// ErrUserNotFound is returned when the requested profile does not exist.
var ErrUserNotFound = errors.New("user not found")

const searchLimit = 50

// Service provides user directory operations.
type Service struct {
	store store.UserStore
}

// New creates a new user directory service.
func New(st store.UserStore) *Service {
	return &Service{store: st}
}

// Profile returns the account of the given user.
func (s *Service) Profile(ctx context.Context, userID int64) (*store.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Online lists users currently flagged online, excluding the requester.
func (s *Service) Online(ctx context.Context, requesterID int64) ([]*store.User, error) {
	online, err := s.store.ListOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("list online: %w", err)
	}
	return excludeSelf(online, requesterID), nil
}

// Search finds users by name or email, excluding the requester.
func (s *Service) Search(ctx context.Context, requesterID int64, query string) ([]*store.User, error) {
	found, err := s.store.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return excludeSelf(found, requesterID), nil
}

func excludeSelf(in []*store.User, requesterID int64) []*store.User {
	out := make([]*store.User, 0, len(in))
	for _, u := range in {
		if u.ID == requesterID {
			continue
		}
		out = append(out, u)
	}
	return out
}
