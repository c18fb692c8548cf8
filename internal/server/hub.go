package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dutch/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
	readLimit  = 4096
)

// client is one WebSocket connection. All writes go through send so a slow
// socket never blocks a room.
type client struct {
	id   string
	conn *websocket.Conn
	log  *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(id string, conn *websocket.Conn, log *zap.Logger) *client {
	return &client{id: id, conn: conn, log: log, send: make(chan []byte, sendBuffer)}
}

func (c *client) enqueue(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- b:
	default:
		// a client that misses a message holds a stale view; drop it and let
		// the read loop release its seat
		c.log.Warn("send buffer full, closing connection", zap.String("conn", c.id))
		c.closed = true
		close(c.send)
	}
}

func (c *client) writeJSON(msg model.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	c.enqueue(b)
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.log.Debug("write failed", zap.String("conn", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub maps player ids to live connections and implements game.Notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	lobby   map[*client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*client),
		lobby:   make(map[*client]struct{}),
		log:     log,
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) joinLobby(c *client) {
	h.mu.Lock()
	h.lobby[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) leaveLobby(c *client) {
	h.mu.Lock()
	delete(h.lobby, c)
	h.mu.Unlock()
	c.close()
}

// Send delivers msg to one player if connected.
func (h *Hub) Send(playerID string, msg model.Message) {
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	c.writeJSON(msg)
}

// Lobby delivers msg to every lobby watcher.
func (h *Hub) Lobby(msg model.Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal lobby message", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.lobby {
		c.enqueue(b)
	}
}
