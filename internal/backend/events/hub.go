// Package events pushes change notifications to connected display overlays
// so they can refresh without tight polling.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is the payload broadcast to every connected overlay.
type Message struct {
	Event string `json:"event"`
}

// Hub fans out messages to all connected websocket clients. Clients that
// fail a write are dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	closed  bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// Register adds a connection to the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		_ = conn.Close()
		return
	}
	h.clients[conn] = true
	slog.Info("overlay client connected", "total", len(h.clients))
}

// Unregister removes and closes a connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		_ = conn.Close()
		slog.Info("overlay client disconnected", "total", len(h.clients))
	}
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(event string) {
	payload, err := json.Marshal(Message{Event: event})
	if err != nil {
		slog.Error("failed to encode event payload", "event", event, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("dropping overlay client after failed write", "error", err)
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
}

// Close disconnects all clients and rejects future registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.clients {
		_ = conn.Close()
		delete(h.clients, conn)
	}
}
