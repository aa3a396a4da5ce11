package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"leoride/internal/events"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsHub fans booking status changes out to connected dashboards so slot
// boards update without polling.
type wsHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	logger  *zerolog.Logger
}

func newWSHub(logger *zerolog.Logger) *wsHub {
	return &wsHub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// Subscribe rebroadcasts every booking lifecycle event.
func (h *wsHub) Subscribe(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingActivated,
		events.EventBookingCompleted,
		events.EventBookingCancelled,
	} {
		et := eventType
		bus.Subscribe(et, func(event *events.Event) error {
			h.broadcast(et, event.Payload)
			return nil
		})
	}
}

func (h *wsHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Reader loop exists only to notice the peer going away.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (h *wsHub) broadcast(eventType string, payload []byte) {
	msg := wsMessage{Type: eventType, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Warn().Err(err).Msg("websocket write failed, dropping client")
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *wsHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}

func (h *wsHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
