package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SharvChopra/SnapGram/internal/apperr"
	"github.com/SharvChopra/SnapGram/internal/domain"
	"github.com/SharvChopra/SnapGram/internal/metrics"
)

// MessageStore is the durable message record owner.
type MessageStore interface {
	Insert(ctx context.Context, m *domain.Message) error
	ListBetween(ctx context.Context, userA, userB string, limit int64, before time.Time) ([]domain.Message, error)
	ListInvolving(ctx context.Context, user string) ([]domain.Message, error)
	MarkRead(ctx context.Context, sender, recipient string) (int64, error)
}

// Pusher delivers a message event to the recipient's live sessions, if any,
// and reports how many accepted it.
type Pusher interface {
	Push(userID string, m domain.Message) int
}

// UserDirectory is the read surface of the external account service.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Summary(ctx context.Context, userID string) (*domain.PartnerSummary, error)
}

// EventPublisher fans persisted messages out to the event bus.
type EventPublisher interface {
	MessageSent(ctx context.Context, m domain.Message) error
}

type MessageService struct {
	store     MessageStore
	pusher    Pusher
	directory UserDirectory
	publisher EventPublisher // optional
	log       *zap.SugaredLogger
}

func NewMessageService(store MessageStore, pusher Pusher, directory UserDirectory, publisher EventPublisher, log *zap.SugaredLogger) *MessageService {
	return &MessageService{
		store:     store,
		pusher:    pusher,
		directory: directory,
		publisher: publisher,
		log:       log,
	}
}

// SendMessage validates and persists a message, then notifies the recipient
// best-effort. The persisted message is returned whether or not any live
// session took the push; only validation and storage failures fail the call.
func (s *MessageService) SendMessage(ctx context.Context, callerID, recipientID, text string) (*domain.Message, error) {
	m, err := domain.NewMessage(callerID, recipientID, text)
	if err != nil {
		return nil, err
	}

	ok, err := s.directory.Exists(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: recipient %s", apperr.ErrNotFound, recipientID)
	}

	if err := s.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	delivered := s.pusher.Push(m.Recipient, *m)
	if delivered == 0 {
		s.log.Debugw("no live session for recipient", "recipient", m.Recipient, "message", m.ID)
	}

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.publisher.MessageSent(pubCtx, *m); err != nil {
			s.log.Warnw("publish message event", "message", m.ID, "err", err)
		}
		cancel()
	}

	return m, nil
}

// GetConversation returns the transcript between the caller and partner,
// oldest first.
func (s *MessageService) GetConversation(ctx context.Context, callerID, partnerID string, limit int64, before time.Time) ([]domain.Message, error) {
	return s.store.ListBetween(ctx, callerID, partnerID, limit, before)
}

// ListConversations returns one entry per distinct partner, newest activity
// first. Partner summaries are attached best-effort; a missing user record
// leaves the entry without one rather than failing the list.
func (s *MessageService) ListConversations(ctx context.Context, callerID string) ([]domain.ConversationSummary, error) {
	msgs, err := s.store.ListInvolving(ctx, callerID)
	if err != nil {
		return nil, err
	}
	convs := domain.ReduceConversations(callerID, msgs)
	for i := range convs {
		summary, err := s.directory.Summary(ctx, convs[i].PartnerID)
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				s.log.Warnw("partner summary", "partner", convs[i].PartnerID, "err", err)
			}
			continue
		}
		convs[i].Partner = summary
	}
	return convs, nil
}

// MarkConversationRead flags all messages from partner to the caller as read.
func (s *MessageService) MarkConversationRead(ctx context.Context, callerID, partnerID string) (int64, error) {
	return s.store.MarkRead(ctx, partnerID, callerID)
}
