package ws

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SharvChopra/SnapGram/internal/domain"
	"github.com/SharvChopra/SnapGram/internal/metrics"
)

// Event is the frame pushed to a live session.
type Event struct {
	Event string         `json:"event"`
	Data  domain.Message `json:"data"`
}

const EventReceiveMessage = "receive_message"

// PresenceMirror is notified when a user gains their first session or loses
// their last one. Backed by Redis in production; nil disables mirroring.
type PresenceMirror interface {
	SetPresence(ctx context.Context, userID string, online bool) error
}

// Hub maps user identities to their live sessions and fans pushed messages
// out to them. All access goes through the mutex; request handlers never
// touch the maps directly.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]struct{}

	presence PresenceMirror
	log      *zap.SugaredLogger
}

func NewHub(presence PresenceMirror, log *zap.SugaredLogger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*Client]struct{}),
		presence: presence,
		log:      log,
	}
}

// Register binds a session to its announced user. Re-registering the same
// session is a no-op.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.sessions[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[c.UserID] = set
	}
	if _, dup := set[c]; dup {
		h.mu.Unlock()
		return
	}
	set[c] = struct{}{}
	first := len(set) == 1
	h.mu.Unlock()

	metrics.ActiveSessions.Inc()
	if first {
		h.mirror(c.UserID, true)
	}
}

// Unregister drops a session and closes its queue. Unknown sessions are
// ignored.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.sessions[c.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	last := len(set) == 0
	if last {
		delete(h.sessions, c.UserID)
	}
	h.mu.Unlock()

	c.closeSend()
	metrics.ActiveSessions.Dec()
	if last {
		h.mirror(c.UserID, false)
	}
}

// Push enqueues a message event to every session registered to userID and
// reports how many accepted it. No sessions, or a full session buffer, is
// not an error; the durable store is the fallback read path.
func (h *Hub) Push(userID string, m domain.Message) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.sessions[userID] {
		if c.enqueue(Event{Event: EventReceiveMessage, Data: m}) {
			delivered++
			metrics.PushesDelivered.Inc()
		} else {
			metrics.PushesDropped.Inc()
		}
	}
	return delivered
}

// Online reports whether the user has at least one registered session.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

func (h *Hub) mirror(userID string, online bool) {
	if h.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.SetPresence(ctx, userID, online); err != nil {
		h.log.Warnw("presence mirror", "user", userID, "online", online, "err", err)
	}
}
