package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/SharvChopra/SnapGram/internal/auth"
	"github.com/SharvChopra/SnapGram/internal/handlers"
	"github.com/SharvChopra/SnapGram/internal/ws"
)

func Register(app *fiber.App, h *handlers.MessageHandler, wsSrv *ws.Server, verifier *auth.Verifier) {
	app.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	api := app.Group("/api", auth.Middleware(verifier))

	messages := api.Group("/messages")
	messages.Post("/", h.SendMessage)
	messages.Get("/", h.ListConversations)
	messages.Get("/:userId", h.GetConversation)
	messages.Patch("/:partnerId/read", h.MarkConversationRead)

	api.Get("/presence/:userId", h.GetPresence)

	// token is verified inside the handshake, not by the Bearer middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsSrv.Handle()))
}
