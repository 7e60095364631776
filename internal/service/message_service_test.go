package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SharvChopra/SnapGram/internal/apperr"
	"github.com/SharvChopra/SnapGram/internal/domain"
	"github.com/SharvChopra/SnapGram/internal/service"
)

type memStore struct {
	mu       sync.Mutex
	messages []domain.Message

	insertErr error
	listErr   error
}

func (s *memStore) Insert(_ context.Context, m *domain.Message) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, *m)
	return nil
}

func (s *memStore) ListBetween(_ context.Context, userA, userB string, limit int64, before time.Time) ([]domain.Message, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Message{}
	for _, m := range s.messages {
		pair := (m.Sender == userA && m.Recipient == userB) || (m.Sender == userB && m.Recipient == userA)
		if !pair {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[int64(len(out))-limit:]
	}
	return out, nil
}

func (s *memStore) ListInvolving(_ context.Context, user string) ([]domain.Message, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Message{}
	for _, m := range s.messages {
		if m.Sender == user || m.Recipient == user {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) MarkRead(_ context.Context, sender, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.messages {
		if s.messages[i].Sender == sender && s.messages[i].Recipient == recipient && !s.messages[i].Read {
			s.messages[i].Read = true
			n++
		}
	}
	return n, nil
}

type stubPusher struct {
	delivered int
	pushed    []domain.Message
}

func (p *stubPusher) Push(_ string, m domain.Message) int {
	p.pushed = append(p.pushed, m)
	return p.delivered
}

type stubDirectory struct {
	known     map[string]bool
	existsErr error
}

func (d *stubDirectory) Exists(_ context.Context, userID string) (bool, error) {
	if d.existsErr != nil {
		return false, d.existsErr
	}
	return d.known[userID], nil
}

func (d *stubDirectory) Summary(_ context.Context, userID string) (*domain.PartnerSummary, error) {
	if !d.known[userID] {
		return nil, apperr.ErrNotFound
	}
	return &domain.PartnerSummary{ID: userID, Username: "user-" + userID}, nil
}

type stubPublisher struct {
	published []domain.Message
	err       error
}

func (p *stubPublisher) MessageSent(_ context.Context, m domain.Message) error {
	p.published = append(p.published, m)
	return p.err
}

func newService(store *memStore, pusher *stubPusher, dir *stubDirectory, pub service.EventPublisher) *service.MessageService {
	return service.NewMessageService(store, pusher, dir, pub, zap.NewNop().Sugar())
}

func allUsers(ids ...string) *stubDirectory {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	return &stubDirectory{known: known}
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("persists, pushes and publishes", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		pusher := &stubPusher{delivered: 1}
		pub := &stubPublisher{}
		svc := newService(store, pusher, allUsers("bob"), pub)

		m, err := svc.SendMessage(ctx, "alice", "bob", "  hi bob ")
		req.NoError(err)
		req.Equal("hi bob", m.Text)
		req.Len(store.messages, 1)
		req.Len(pusher.pushed, 1)
		req.Equal(m.ID, pusher.pushed[0].ID)
		req.Len(pub.published, 1)
		req.Equal(m.ID, pub.published[0].ID)
	})

	t.Run("validation failure stores nothing", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		pusher := &stubPusher{}
		svc := newService(store, pusher, allUsers("bob"), nil)

		_, err := svc.SendMessage(ctx, "alice", "bob", "   ")
		req.ErrorIs(err, apperr.ErrValidation)
		req.Empty(store.messages)
		req.Empty(pusher.pushed)
	})

	t.Run("unknown recipient is rejected before any write", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		svc := newService(store, &stubPusher{}, allUsers("bob"), nil)

		_, err := svc.SendMessage(ctx, "alice", "mallory", "hi")
		req.ErrorIs(err, apperr.ErrNotFound)
		req.Empty(store.messages)
	})

	t.Run("storage failure surfaces and skips push", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{insertErr: apperr.ErrStorage}
		pusher := &stubPusher{}
		pub := &stubPublisher{}
		svc := newService(store, pusher, allUsers("bob"), pub)

		_, err := svc.SendMessage(ctx, "alice", "bob", "hi")
		req.ErrorIs(err, apperr.ErrStorage)
		req.Empty(pusher.pushed)
		req.Empty(pub.published)
	})

	t.Run("no live session still succeeds", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		svc := newService(store, &stubPusher{delivered: 0}, allUsers("bob"), nil)

		m, err := svc.SendMessage(ctx, "alice", "bob", "hi")
		req.NoError(err)
		req.NotNil(m)
		req.Len(store.messages, 1)
	})

	t.Run("publish failure never fails the send", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		pub := &stubPublisher{err: errors.New("broker down")}
		svc := newService(store, &stubPusher{}, allUsers("bob"), pub)

		_, err := svc.SendMessage(ctx, "alice", "bob", "hi")
		req.NoError(err)
		req.Len(store.messages, 1)
	})
}

func TestGetConversationOrdering(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := &memStore{}
	svc := newService(store, &stubPusher{}, allUsers("alice", "bob"), nil)

	first, err := svc.SendMessage(ctx, "alice", "bob", "hi")
	req.NoError(err)
	second, err := svc.SendMessage(ctx, "alice", "bob", "how are you")
	req.NoError(err)

	msgs, err := svc.GetConversation(ctx, "alice", "bob", 0, time.Time{})
	req.NoError(err)
	req.Len(msgs, 2)
	req.Equal(first.ID, msgs[0].ID)
	req.Equal(second.ID, msgs[1].ID)
	req.Equal("how are you", msgs[1].Text)
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()

	t.Run("empty inbox is an empty list, not an error", func(t *testing.T) {
		req := require.New(t)
		svc := newService(&memStore{}, &stubPusher{}, allUsers(), nil)
		convs, err := svc.ListConversations(ctx, "alice")
		req.NoError(err)
		req.Empty(convs)
	})

	t.Run("offline recipient sees the conversation on next poll", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{}
		svc := newService(store, &stubPusher{delivered: 0}, allUsers("alice", "bob"), nil)

		_, err := svc.SendMessage(ctx, "alice", "bob", "hi")
		req.NoError(err)
		_, err = svc.SendMessage(ctx, "alice", "bob", "how are you")
		req.NoError(err)

		convs, err := svc.ListConversations(ctx, "bob")
		req.NoError(err)
		req.Len(convs, 1)
		req.Equal("alice", convs[0].PartnerID)
		req.Equal("how are you", convs[0].LastMessage.Text)
		req.Equal(2, convs[0].UnreadCount)
		req.NotNil(convs[0].Partner)
		req.Equal("user-alice", convs[0].Partner.Username)
	})

	t.Run("missing partner record leaves the entry without a summary", func(t *testing.T) {
		req := require.New(t)
		store := &memStore{messages: []domain.Message{
			{ID: "m1", Sender: "ghost", Recipient: "alice", Text: "boo", CreatedAt: time.Now()},
		}}
		svc := newService(store, &stubPusher{}, allUsers("alice"), nil)

		convs, err := svc.ListConversations(ctx, "alice")
		req.NoError(err)
		req.Len(convs, 1)
		req.Nil(convs[0].Partner)
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		svc := newService(&memStore{listErr: apperr.ErrStorage}, &stubPusher{}, allUsers(), nil)
		_, err := svc.ListConversations(ctx, "alice")
		require.ErrorIs(t, err, apperr.ErrStorage)
	})
}

func TestMarkConversationRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := &memStore{}
	svc := newService(store, &stubPusher{}, allUsers("alice", "bob"), nil)

	_, err := svc.SendMessage(ctx, "alice", "bob", "one")
	req.NoError(err)
	_, err = svc.SendMessage(ctx, "alice", "bob", "two")
	req.NoError(err)

	n, err := svc.MarkConversationRead(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(int64(2), n)

	convs, err := svc.ListConversations(ctx, "bob")
	req.NoError(err)
	req.Equal(0, convs[0].UnreadCount)

	// idempotent
	n, err = svc.MarkConversationRead(ctx, "bob", "alice")
	req.NoError(err)
	req.Equal(int64(0), n)
}
