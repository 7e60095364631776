package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/SharvChopra/SnapGram/internal/apperr"
)

// MaxTextLen is the upper bound on a message body, in runes.
const MaxTextLen = 1000

type Message struct {
	ID        string    `bson:"_id" json:"id"`
	Sender    string    `bson:"sender" json:"sender"`
	Recipient string    `bson:"recipient" json:"recipient"`
	Text      string    `bson:"text" json:"text"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// NewMessage validates and builds an unsaved message. The text is trimmed
// before the emptiness check; the stored body keeps the trimmed form.
func NewMessage(sender, recipient, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is empty", apperr.ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxTextLen {
		return nil, fmt.Errorf("%w: message text exceeds %d characters", apperr.ErrValidation, MaxTextLen)
	}
	if sender == "" || recipient == "" {
		return nil, fmt.Errorf("%w: sender and recipient are required", apperr.ErrValidation)
	}
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}
