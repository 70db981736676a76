package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chatweb/chatweb-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func assertNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		case <-timeout:
			return
		}
	}
}

// fakeStore is an in-memory store.Store for hub tests.
type fakeStore struct {
	mu sync.Mutex

	users      map[int64]*store.User
	messages   []*store.Message
	nextMsgID  int64
	failCreate bool

	createCalls int
	markCalls   int
	online      map[int64]bool
}

func newFakeStore(users ...*store.User) *fakeStore {
	fs := &fakeStore{
		users:  make(map[int64]*store.User),
		online: make(map[int64]bool),
	}
	for _, u := range users {
		fs.users[u.ID] = u
	}
	return fs
}

func (f *fakeStore) CreateUser(_ context.Context, u *store.User) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) SearchUsers(context.Context, string, int) ([]*store.User, error) {
	return nil, nil
}

func (f *fakeStore) ListOnline(context.Context) ([]*store.User, error) {
	return nil, nil
}

func (f *fakeStore) SetOnline(_ context.Context, userID int64, online bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = online
	return nil
}

func (f *fakeStore) CreateMessage(_ context.Context, msg *store.Message) (*store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failCreate {
		return nil, errors.New("store unavailable")
	}
	f.nextMsgID++
	stored := *msg
	stored.ID = f.nextMsgID
	if stored.Type == "" {
		stored.Type = store.MessageTypeText
	}
	stored.CreatedAt = time.Now().UTC()
	f.messages = append(f.messages, &stored)
	return &stored, nil
}

func (f *fakeStore) MarkConversationRead(_ context.Context, senderID, receiverID int64, readAt time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markCalls++
	var count int64
	for _, m := range f.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			at := readAt
			m.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) ListConversation(context.Context, int64, int64, int, *int64) ([]*store.Message, error) {
	return nil, nil
}

func (f *fakeStore) ListConversations(context.Context, int64) ([]*store.Conversation, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *fakeStore) unreadFrom(senderID, receiverID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			n++
		}
	}
	return n
}
