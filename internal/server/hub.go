package server

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks the active WebSocket connections and broadcasts search events
// to all of them. Clients that fail a write are dropped.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]*client
}

type client struct {
	conn *websocket.Conn
	// writeMu serializes writes; gorilla connections allow one writer.
	writeMu sync.Mutex
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		clients: make(map[*websocket.Conn]*client),
	}
}

// Add registers a connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = &client{conn: conn}
	count := len(h.clients)
	h.mu.Unlock()
	h.log.Info("client connected", zap.Int("total_clients", count))
}

// Remove unregisters and closes a connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		conn.Close()
		h.log.Info("client disconnected", zap.Int("total_clients", count))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast marshals the event and writes it to every connected client.
// Fire-and-forget: failed clients are dropped, nothing blocks the caller
// beyond the writes themselves.
func (h *Hub) Broadcast(event interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", zap.Error(err))
		return
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		c.writeMu.Lock()
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		c.writeMu.Unlock()
		if err != nil {
			h.log.Warn("dropping client after failed write", zap.Error(err))
			h.Remove(c.conn)
		}
	}
}
