package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pagepulse/pagepulse/internal/api"
	"github.com/pagepulse/pagepulse/internal/budget"
	"github.com/pagepulse/pagepulse/internal/session"
	"github.com/pagepulse/pagepulse/internal/state"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients on every broadcast.
type Message struct {
	Event string               `json:"event"`
	Data  api.OverviewResponse `json:"data"`
}

// Hub manages dashboard WebSocket connections. It broadcasts the overview on
// a periodic refresh tick, and additionally whenever sessions report updates
// — those are coalesced through a Batcher so a burst of timing entries
// produces one broadcast, not one per merge.
type Hub struct {
	registry *session.Registry
	budgets  *budget.Engine
	interval time.Duration
	dirty    *state.Batcher[map[string]struct{}]

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// client represents one connected dashboard client.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// New creates a Hub reading from reg, refreshing every interval.
func New(reg *session.Registry, budgets *budget.Engine, interval time.Duration) *Hub {
	h := &Hub{
		registry: reg,
		budgets:  budgets,
		interval: interval,
		clients:  make(map[*client]struct{}),
	}
	h.dirty = state.NewBatcher(mergeIDs)
	h.dirty.OnCommit(func(map[string]struct{}) { h.broadcast() })
	return h
}

// Invalidate marks a session as changed. Calls arriving in the same
// scheduling turn coalesce into a single broadcast.
func (h *Hub) Invalidate(sessionID string) {
	h.dirty.Update(map[string]struct{}{sessionID: {}})
}

// Run starts the periodic refresh loop. Run blocks until ctx is cancelled,
// then cancels the pending coalesced broadcast and closes all connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.dirty.Close()
			h.closeAll()
			return
		case <-t.C:
			h.broadcast()
		}
	}
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client.
// The current overview is sent immediately on connect. Blocks until the
// connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}

	// Queue the current overview before the client is visible to broadcast,
	// so nothing else can touch the channel during this send.
	if data, err := h.buildMessage(); err == nil {
		c.send <- data
	}

	h.register(c)
	defer h.unregister(c)

	go c.writePump()
	c.readPump() // blocks until connection closes
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// --- internal ---------------------------------------------------------------

func mergeIDs(dst, src map[string]struct{}) map[string]struct{} {
	if dst == nil {
		dst = make(map[string]struct{}, len(src))
	}
	for id := range src {
		dst[id] = struct{}{}
	}
	return dst
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister closes the client's send channel under the write lock. Sends
// happen only while the read lock is held, so a close can never land between
// a map snapshot and a send.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast() {
	data, err := h.buildMessage()
	if err != nil {
		return
	}

	// Enqueue while holding the read lock: every send channel in the map is
	// guaranteed open for as long as the lock is held. The sends are
	// non-blocking, so clients cannot stall a broadcast.
	var full []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			full = append(full, c)
		}
	}
	h.mu.RUnlock()

	// A full buffer means the client stopped draining; drop it after the
	// read lock is released so unregister can take the write lock.
	for _, c := range full {
		h.unregister(c)
	}
}

func (h *Hub) buildMessage() ([]byte, error) {
	msg := Message{
		Event: "overview",
		Data:  api.BuildOverview(h.registry, h.budgets),
	}
	return json.Marshal(msg)
}

// closeAll drops every client at shutdown. Holding the write lock for the
// whole sweep keeps it mutually exclusive with in-flight broadcasts.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump is the only writer on the connection: it forwards queued
// broadcasts and keeps the connection alive with pings. One goroutine per
// client; exits when the send channel is closed or a write fails.
func (c *client) writePump() {
	pings := time.NewTicker(pingPeriod)
	defer func() {
		pings.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// The hub dropped this client; say goodbye properly.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-pings.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the stream is one-way. Reading is still
// required so pong and close frames are processed and disconnects noticed.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
