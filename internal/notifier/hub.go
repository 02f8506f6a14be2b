package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	model "timed-auction/internal/models"
	"timed-auction/utils"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

type client struct {
	conn *websocket.Conn
	wmu  sync.Mutex
}

func (c *client) write(b []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub keeps one room of websocket connections per good
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// goodID -> connections in the room
	rooms map[string]map[*client]struct{}
}

// NewHub creates a Hub. allowOrigin decides which browser origins may connect;
// nil accepts all.
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	if allowOrigin == nil {
		allowOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		rooms:    make(map[string]map[*client]struct{}),
	}
}

// HandleWS upgrades the request and keeps the connection in goodID's room
// until the client goes away. Clients only listen; a {"type":"ping"} frame is
// answered with a pong.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, goodID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("hub: websocket upgrade failed", map[string]any{"good_id": goodID, "error": err.Error()})
		return
	}
	c := &client{conn: conn}
	h.join(goodID, c)
	defer func() {
		h.leave(goodID, c)
		_ = conn.Close()
	}()

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "ping" {
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}
}

func (h *Hub) join(goodID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[goodID]; !ok {
		h.rooms[goodID] = make(map[*client]struct{})
	}
	h.rooms[goodID][c] = struct{}{}
}

func (h *Hub) leave(goodID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[goodID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, goodID)
		}
	}
}

// RoomSize returns the number of connections listening on goodID
func (h *Hub) RoomSize(goodID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[goodID])
}

// Broadcast writes msg to every connection in its good's room
func (h *Hub) Broadcast(msg RoomMessage) {
	h.mu.RLock()
	room := h.rooms[msg.GoodID]
	clients := make([]*client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	b, err := json.Marshal(msg)
	if err != nil {
		utils.Error("hub: marshal room message", map[string]any{"good_id": msg.GoodID, "error": err.Error()})
		return
	}
	for _, c := range clients {
		if err := c.write(b); err != nil {
			utils.Debug("hub: write to client failed", map[string]any{"good_id": msg.GoodID, "error": err.Error()})
		}
	}
}

// NotifyBid broadcasts the event to local connections only
func (h *Hub) NotifyBid(_ context.Context, goodID string, event model.BidEvent) {
	h.Broadcast(newBidMessage(goodID, event))
}
