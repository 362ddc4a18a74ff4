package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/storekit/pkg/state"
)

const (
	sendBuffer   = 16
	writeTimeout = 5 * time.Second
)

// ChangeEvent is the JSON message streamed to WebSocket clients for every
// Change Notification.
type ChangeEvent struct {
	Seq  uint64 `json:"seq"`
	Key  string `json:"key"`
	Path string `json:"path"`
}

// client owns one connection. Writes happen on its own goroutine so a slow
// reader never blocks the store.
type client struct {
	id     uuid.UUID
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		id:     uuid.New(),
		conn:   conn,
		sendCh: make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *client) run() {
	for {
		select {
		case msg := <-c.sendCh:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.stop()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) stop() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Hub fans change events out to connected WebSocket clients.
type Hub struct {
	clients  map[uuid.UUID]*client
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
}

// HandleWebSocket upgrades the request and streams change events until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("inspect: websocket upgrade failed", "error", err)
		return
	}

	c := newClient(conn)
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("inspect: client connected", "client", c.id, "clients", n)

	// Reads only detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	h.logger.Info("inspect: client disconnected", "client", c.id)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.stop()
}

// Publish sends ch to every client. It never blocks: a client whose buffer
// is full misses the event.
func (h *Hub) Publish(ch state.Change) {
	data, err := json.Marshal(ChangeEvent{Seq: ch.Seq, Key: ch.Key, Path: ch.Path})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		select {
		case c.sendCh <- data:
		default:
			h.logger.Warn("inspect: dropped change event for slow client", "client", id, "seq", ch.Seq)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[uuid.UUID]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.stop()
	}
}
