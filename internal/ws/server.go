package ws

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/SharvChopra/SnapGram/internal/auth"
)

// Server accepts websocket upgrades, verifies the token handshake, and binds
// the session to the hub under the verified identity.
type Server struct {
	hub      *Hub
	verifier *auth.Verifier
	log      *zap.SugaredLogger
}

func NewServer(hub *Hub, verifier *auth.Verifier, log *zap.SugaredLogger) *Server {
	return &Server{hub: hub, verifier: verifier, log: log}
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handle() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		token := conn.Query("token")
		if token == "" {
			_ = conn.Close()
			return
		}
		uid, err := s.verifier.Verify(token)
		if err != nil {
			s.log.Debugw("ws handshake rejected", "err", err)
			_ = conn.Close()
			return
		}

		c := NewClient(uid, conn)
		s.hub.Register(c)
		go c.writePump()
		c.readPump(s.hub)
	}
}
