package hub

import (
	"sync"
	"testing"
	"time"

	"github.com/pagepulse/pagepulse/internal/budget"
	"github.com/pagepulse/pagepulse/internal/collector"
	"github.com/pagepulse/pagepulse/internal/config"
	"github.com/pagepulse/pagepulse/internal/session"
)

func newHub(t *testing.T) *Hub {
	t.Helper()
	reg := session.New(time.Minute, 50*time.Millisecond, collector.Options{})
	return New(reg, budget.New(config.BudgetsConfig{}), time.Minute)
}

// addClient registers a client with the given buffer depth, bypassing the
// WebSocket upgrade. The pumps are not started, so nothing drains send.
func addClient(h *Hub, depth int) *client {
	c := &client{send: make(chan []byte, depth)}
	h.register(c)
	return c
}

func TestBroadcast_SendNeverRacesDisconnect(t *testing.T) {
	h := newHub(t)
	c := addClient(h, 16)

	// A disconnect closes the send channel before the next broadcast runs.
	// The broadcast must observe the channel as gone, not send into it.
	h.unregister(c)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("broadcast after disconnect panicked: %v", r)
		}
	}()
	h.broadcast()
}

func TestBroadcast_FullBufferDropsClient(t *testing.T) {
	h := newHub(t)
	c := addClient(h, 1)

	h.broadcast() // fills the single-slot buffer
	h.broadcast() // buffer still full: the client is dropped

	if n := h.Count(); n != 0 {
		t.Errorf("Count after slow-client drop: got %d, want 0", n)
	}
	if _, ok := <-c.send; ok {
		// One queued message, then the closed channel.
		if _, ok := <-c.send; ok {
			t.Error("send channel still open after drop")
		}
	}

	// The dropped client is out of the map; further broadcasts skip it.
	h.broadcast()
}

func TestBroadcast_ConcurrentWithUnregister(t *testing.T) {
	h := newHub(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		c := addClient(h, 1)

		wg.Add(2)
		go func() {
			defer wg.Done()
			h.broadcast()
		}()
		go func(c *client) {
			defer wg.Done()
			h.unregister(c)
		}(c)
	}
	wg.Wait()

	if n := h.Count(); n != 0 {
		t.Errorf("Count after churn: got %d, want 0", n)
	}
}
