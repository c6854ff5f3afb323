package ingest_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pagepulse/pagepulse/internal/collector"
	"github.com/pagepulse/pagepulse/internal/ingest"
	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/session"
)

// --- helpers ----------------------------------------------------------------

func startIngest(t *testing.T) (wsURL string, reg *session.Registry) {
	t.Helper()

	reg = session.New(time.Minute, 10*time.Millisecond, collector.Options{ResourceTiming: true})
	srv := httptest.NewServer(ingest.New(reg))
	t.Cleanup(func() {
		srv.Close()
		for _, s := range reg.List() {
			reg.Remove(s.ID)
		}
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), reg
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// hello performs the handshake and returns the assigned session ID.
func hello(t *testing.T, conn *websocket.Conn, page string, supports ...string) string {
	t.Helper()

	writeJSON(t, conn, map[string]interface{}{
		"type":     "hello",
		"page":     page,
		"supports": supports,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var resp map[string]interface{}
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read ready: %v", err)
	}
	if resp["type"] != "ready" {
		t.Fatalf("handshake response type: got %v, want ready", resp["type"])
	}
	id, _ := resp["session_id"].(string)
	if id == "" {
		t.Fatal("ready carried no session_id")
	}
	return id
}

func writeJSON(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

// waitSnapshot polls the session until check passes or the deadline expires.
func waitSnapshot(t *testing.T, reg *session.Registry, id string, check func(metrics.Snapshot) bool) metrics.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s, ok := reg.Get(id)
		if ok {
			if snap := s.Snapshot(); check(snap) {
				return snap
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot never reached expected state")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// --- tests ------------------------------------------------------------------

func TestHandshake_CreatesSession(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/checkout", "paint", "layout-shift")

	s, ok := reg.Get(id)
	if !ok {
		t.Fatal("session not registered after handshake")
	}
	if s.Page != "/checkout" {
		t.Errorf("page: got %q, want /checkout", s.Page)
	}
}

func TestHandshake_UnknownKindsFiltered(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/", "paint", "long-animation-frame")

	writeJSON(t, conn, map[string]interface{}{
		"type": "entries",
		"kind": "paint",
		"entries": []map[string]interface{}{
			{"name": "first-contentful-paint", "start_time": 1100},
		},
	})

	waitSnapshot(t, reg, id, func(snap metrics.Snapshot) bool {
		return snap.FirstContentfulPaintMs != nil && *snap.FirstContentfulPaintMs == 1100
	})
}

func TestHandshake_NonHelloFirstMessageDrops(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	writeJSON(t, conn, map[string]interface{}{"type": "entries", "kind": "paint"})

	// The server drops the connection without a ready.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection close after non-hello first message")
	}
	if reg.Count() != 0 {
		t.Errorf("sessions after dropped handshake: got %d, want 0", reg.Count())
	}
}

func TestEntries_FlowIntoSnapshot(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/", "paint", "largest-contentful-paint", "first-input", "layout-shift")

	writeJSON(t, conn, map[string]interface{}{
		"type": "entries",
		"kind": "largest-contentful-paint",
		"entries": []map[string]interface{}{
			{"start_time": 1200},
			{"start_time": 2600},
		},
	})
	writeJSON(t, conn, map[string]interface{}{
		"type": "entries",
		"kind": "layout-shift",
		"entries": []map[string]interface{}{
			{"value": 0.08},
			{"value": 0.04, "had_recent_input": true},
		},
	})

	snap := waitSnapshot(t, reg, id, func(snap metrics.Snapshot) bool {
		return snap.LargestContentfulPaintMs != nil && snap.CumulativeLayoutShift != nil
	})
	if *snap.LargestContentfulPaintMs != 2600 {
		t.Errorf("lcp: got %v, want 2600", *snap.LargestContentfulPaintMs)
	}
	if *snap.CumulativeLayoutShift != 0.08 {
		t.Errorf("cls: got %v, want 0.08", *snap.CumulativeLayoutShift)
	}
}

func TestNavigationAndResources(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/", "paint")

	writeJSON(t, conn, map[string]interface{}{
		"type": "navigation",
		"navigation": map[string]interface{}{
			"time_to_first_byte_ms": 220,
			"load_event_ms":         3100,
		},
	})
	writeJSON(t, conn, map[string]interface{}{
		"type": "resources",
		"resources": []map[string]interface{}{
			{"name": "bundle.js", "transfer_size": 450_000},
			{"name": "icon.svg", "transfer_size": 4_000},
		},
	})

	snap := waitSnapshot(t, reg, id, func(snap metrics.Snapshot) bool {
		return snap.Navigation != nil && len(snap.LargeResources) > 0
	})
	if snap.Navigation.TimeToFirstByteMs != 220 {
		t.Errorf("ttfb: got %v, want 220", snap.Navigation.TimeToFirstByteMs)
	}
	if len(snap.LargeResources) != 1 || snap.LargeResources[0].Name != "bundle.js" {
		t.Errorf("large resources: got %+v", snap.LargeResources)
	}
}

func TestMalformedMessageSkipped(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/", "paint")

	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write malformed: %v", err)
	}

	// The session survives and later messages still land.
	writeJSON(t, conn, map[string]interface{}{
		"type": "entries",
		"kind": "paint",
		"entries": []map[string]interface{}{
			{"name": "first-contentful-paint", "start_time": 640},
		},
	})

	waitSnapshot(t, reg, id, func(snap metrics.Snapshot) bool {
		return snap.FirstContentfulPaintMs != nil && *snap.FirstContentfulPaintMs == 640
	})
}

func TestBye_RemovesSessionImmediately(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/", "paint")

	writeJSON(t, conn, map[string]interface{}{"type": "bye"})

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := reg.Get(id); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("session still registered after bye")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDisconnect_LeavesSessionForTTL(t *testing.T) {
	wsURL, reg := startIngest(t)

	conn := dial(t, wsURL)
	id := hello(t, conn, "/", "paint")

	conn.Close()
	time.Sleep(50 * time.Millisecond)

	if _, ok := reg.Get(id); !ok {
		t.Error("abrupt disconnect removed the session; eviction owns that")
	}
}
