package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"vehicle_parking/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Hub owns the set of live WebSocket connections and broadcasts the public
// view of every published event to all of them. Clients are anonymous, so
// owner fields never leave through the hub.
type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
	logger     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug().Int("clients", total).Msg("websocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Debug().Int("clients", total).Msg("websocket client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Warn().Err(err).Msg("dropping websocket client after write error")
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Register adds conn to the broadcast set. After Run has returned the
// connection is closed instead.
func (h *Hub) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

// Unregister never blocks once Run has returned; Run closed every client on exit.
func (h *Hub) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Publish never blocks the caller; when the buffer is full the event is dropped.
func (h *Hub) Publish(ctx context.Context, event domain.ParkingEvent) error {
	message, err := json.Marshal(event.Public())
	if err != nil {
		return fmt.Errorf("Hub.Publish: %w", err)
	}
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn().Str("event_id", event.EventID).Msg("broadcast buffer full, dropping event")
	}
	return nil
}
