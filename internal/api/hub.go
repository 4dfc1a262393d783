package api

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/dosetrack/dosetrack/internal/reminder"
)

// Hub fans reminder events out to connected websocket clients. Slow
// clients drop events rather than block the engine.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan reminder.Event
	closed  bool
	logger  *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan reminder.Event),
		logger:  logger,
	}
}

// Broadcast delivers ev to every connected client, non-blocking.
func (h *Hub) Broadcast(ev reminder.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			// Client is behind; drop rather than block
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for conn, ch := range h.clients {
		close(ch)
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]chan reminder.Event)
}

func (h *Hub) register(conn *websocket.Conn) chan reminder.Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	ch := make(chan reminder.Event, 16)
	h.clients[conn] = ch
	return ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
}

// handleEvents streams reminder events to a websocket client as JSON.
func (s *Server) handleEvents(conn *websocket.Conn) {
	ch := s.hub.register(conn)
	if ch == nil {
		conn.Close()
		return
	}
	defer s.hub.unregister(conn)

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug("Websocket client gone", zap.Error(err))
			return
		}
	}
}
