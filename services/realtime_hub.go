package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Sink is the outbound streaming transport the chat orchestrator writes chunks
// to. The core knows nothing about the delivery mechanism beyond this shape.
type Sink interface {
	SendToUser(userID uint, event string, payload any)
}

type WSClient struct {
	UserID uint
	Conn   *websocket.Conn

	mu sync.Mutex // websocket writes are not concurrency-safe
}

func (c *WSClient) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, msg)
}

// RealtimeHub fans events out to every open connection of a user. There is no
// backpressure: chunks are written as fast as they are produced and a slow
// client only affects its own connection.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *RealtimeHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(c *WSClient) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.Conn.Close()
}

// SendToUser delivers one named event to all of the user's connections. A
// disconnected user simply stops receiving; nothing is buffered or retried.
func (h *RealtimeHub) SendToUser(userID uint, event string, payload any) {
	msg, err := json.Marshal(map[string]any{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		_ = c.write(msg)
	}
}
