package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// WSClient wraps one websocket connection. gorilla allows at most one
// concurrent writer per connection, and both the hub's broadcasts and the
// controller's keepalive pings write to it, so every write goes through the
// client's mutex.
type WSClient struct {
	UserID uint
	Conn   *websocket.Conn

	writeMu sync.Mutex
}

func (c *WSClient) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.Conn.WriteMessage(messageType, data)
}

// Ping sends a keepalive frame.
func (c *WSClient) Ping() error {
	return c.write(websocket.PingMessage, nil)
}

// WaterHub fans water-level updates out to a user's open sockets.
type WaterHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*WSClient]struct{}
}

func NewWaterHub() *WaterHub {
	return &WaterHub{clients: make(map[uint]map[*WSClient]struct{})}
}

func (h *WaterHub) Register(c *WSClient) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*WSClient]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *WaterHub) Unregister(c *WSClient) {
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

func (h *WaterHub) BroadcastLevel(userID uint, level int) {
	msg, _ := json.Marshal(map[string]int{"water_level": level})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		_ = c.write(websocket.TextMessage, msg)
	}
}
