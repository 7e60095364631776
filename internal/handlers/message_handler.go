package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/SharvChopra/SnapGram/internal/apperr"
	"github.com/SharvChopra/SnapGram/internal/auth"
	"github.com/SharvChopra/SnapGram/internal/cache"
	"github.com/SharvChopra/SnapGram/internal/domain"
)

// MessageAPI is what the REST surface needs from the messaging core.
type MessageAPI interface {
	SendMessage(ctx context.Context, callerID, recipientID, text string) (*domain.Message, error)
	GetConversation(ctx context.Context, callerID, partnerID string, limit int64, before time.Time) ([]domain.Message, error)
	ListConversations(ctx context.Context, callerID string) ([]domain.ConversationSummary, error)
	MarkConversationRead(ctx context.Context, callerID, partnerID string) (int64, error)
}

// PresenceReader exposes the mirrored hub state.
type PresenceReader interface {
	GetPresence(ctx context.Context, userID string) (cache.Presence, error)
}

type MessageHandler struct {
	svc      MessageAPI
	presence PresenceReader // optional
	log      *zap.SugaredLogger
}

func NewMessageHandler(svc MessageAPI, presence PresenceReader, log *zap.SugaredLogger) *MessageHandler {
	return &MessageHandler{svc: svc, presence: presence, log: log}
}

type sendMessageRequest struct {
	RecipientID string `json:"recipientId"`
	Text        string `json:"text"`
}

func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	var body sendMessageRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	m, err := h.svc.SendMessage(c.Context(), auth.CallerID(c), body.RecipientID, body.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(http.StatusCreated).JSON(m)
}

func (h *MessageHandler) GetConversation(c *fiber.Ctx) error {
	partnerID := c.Params("userId")
	limit := int64(0)
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			limit = n
		}
	}
	var before time.Time
	if v := c.Query("before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			before = t
		}
	}
	msgs, err := h.svc.GetConversation(c.Context(), auth.CallerID(c), partnerID, limit, before)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(msgs)
}

func (h *MessageHandler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.svc.ListConversations(c.Context(), auth.CallerID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(convs)
}

func (h *MessageHandler) MarkConversationRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkConversationRead(c.Context(), auth.CallerID(c), c.Params("partnerId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (h *MessageHandler) GetPresence(c *fiber.Ctx) error {
	if h.presence == nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "presence disabled"})
	}
	p, err := h.presence.GetPresence(c.Context(), c.Params("userId"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(p)
}

func (h *MessageHandler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		h.log.Errorw("request failed", "path", c.Path(), "err", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "server error"})
	}
}
