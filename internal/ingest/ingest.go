package ingest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pagepulse/pagepulse/internal/session"
	"github.com/pagepulse/pagepulse/internal/timing"
)

const (
	// maxMessageBytes caps one beacon frame. A full resource timing dump for
	// a heavy page fits comfortably under this.
	maxMessageBytes = 1 << 20

	// helloTimeout is how long a new connection gets to identify itself.
	helloTimeout = 10 * time.Second

	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	// Beacons connect from arbitrary page origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler accepts beacon WebSocket connections. The first message must be a
// hello declaring the page and the entry kinds its observers support; the
// handler creates a session and then feeds every subsequent message into it.
//
// A bye message tears the session down immediately. An abrupt disconnect
// leaves the session to TTL eviction instead.
type Handler struct {
	registry *session.Registry
}

// New creates a Handler that registers sessions in reg.
func New(reg *session.Registry) *Handler {
	return &Handler{registry: reg}
}

// ServeHTTP upgrades the connection and serves the beacon until it says bye
// or disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	sess, ok := h.handshake(conn, r)
	if !ok {
		return
	}

	h.serve(conn, sess)
}

// handshake reads the hello message and creates the session.
func (h *Handler) handshake(conn *websocket.Conn, r *http.Request) (*session.Session, bool) {
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, false
	}

	var m envelope
	if err := json.Unmarshal(raw, &m); err != nil || m.Type != typeHello {
		slog.Warn("ingest: connection did not start with hello, dropping",
			"remote", r.RemoteAddr)
		return nil, false
	}

	supported := make([]timing.Kind, 0, len(m.Supports))
	for _, s := range m.Supports {
		kind, ok := timing.ParseKind(s)
		if !ok {
			slog.Debug("ingest: ignoring unknown entry kind in hello", "kind", s)
			continue
		}
		supported = append(supported, kind)
	}

	userAgent := m.UserAgent
	if userAgent == "" {
		userAgent = r.UserAgent()
	}
	sess := h.registry.Create(m.Page, userAgent, supported)

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(readyResponse{Type: "ready", SessionID: sess.ID}); err != nil {
		h.registry.Remove(sess.ID)
		return nil, false
	}

	conn.SetReadDeadline(time.Time{})
	return sess, true
}

// serve dispatches beacon messages into the session's feed.
func (h *Handler) serve(conn *websocket.Conn, sess *session.Session) {
	feed := sess.Feed()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("ingest: beacon disconnected, session left to ttl",
				"session_id", sess.ID)
			return
		}

		var m envelope
		if err := json.Unmarshal(raw, &m); err != nil {
			slog.Warn("ingest: skipping malformed message",
				"session_id", sess.ID, "err", err)
			continue
		}

		switch m.Type {
		case typeEntries:
			kind, ok := timing.ParseKind(m.Kind)
			if !ok {
				slog.Debug("ingest: skipping entries of unknown kind",
					"session_id", sess.ID, "kind", m.Kind)
				continue
			}
			feed.Deliver(kind, m.Entries)

		case typeNavigation:
			if m.Navigation == nil {
				continue
			}
			feed.SetNavigation(*m.Navigation)

		case typeResources:
			feed.SetResources(m.Resources)

		case typeBye:
			h.registry.Remove(sess.ID)
			return

		default:
			slog.Debug("ingest: ignoring unknown message type",
				"session_id", sess.ID, "type", m.Type)
		}
	}
}
