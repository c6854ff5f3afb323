package state

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

const window = 300 * time.Millisecond

// newMockDebounced builds a Debounced driven by a mock clock.
func newMockDebounced[T any](window time.Duration) (*Debounced[T], *clock.Mock) {
	d := NewDebounced[T](window)
	mock := clock.NewMock()
	d.clk = mock
	return d, mock
}

func TestDebounced_ImmediateValueAlwaysCurrent(t *testing.T) {
	d, _ := newMockDebounced[int](window)

	d.Set(1)
	if got := d.Value(); got != 1 {
		t.Errorf("Value after Set(1): got %d", got)
	}
	d.Set(2)
	if got := d.Value(); got != 2 {
		t.Errorf("Value after Set(2): got %d", got)
	}
	// Settled has not caught up yet.
	if got := d.Settled(); got != 0 {
		t.Errorf("Settled before window elapsed: got %d, want 0", got)
	}
}

func TestDebounced_RapidUpdatesCoalesce(t *testing.T) {
	d, mock := newMockDebounced[string](window)

	// Updates at t=0, 50, 100 — the timer restarts each time.
	d.Set("a")
	mock.Add(50 * time.Millisecond)
	d.Set("b")
	mock.Add(50 * time.Millisecond)
	d.Set("c")

	// At t=399 the window since the last update has not elapsed.
	mock.Add(299 * time.Millisecond)
	if got := d.Settled(); got != "" {
		t.Errorf("Settled at t=399ms: got %q, want unsettled", got)
	}

	// At t=400 the value submitted at t=100 settles.
	mock.Add(1 * time.Millisecond)
	if got := d.Settled(); got != "c" {
		t.Errorf("Settled at t=400ms: got %q, want c", got)
	}
}

func TestDebounced_QuietWindowSettlesLastValue(t *testing.T) {
	d, mock := newMockDebounced[int](window)

	d.Set(7)
	mock.Add(window)
	if got := d.Settled(); got != 7 {
		t.Errorf("Settled: got %d, want 7", got)
	}
	// A later update starts a fresh cycle.
	d.Set(8)
	if got := d.Settled(); got != 7 {
		t.Errorf("Settled should lag until the window elapses: got %d", got)
	}
	mock.Add(window)
	if got := d.Settled(); got != 8 {
		t.Errorf("Settled: got %d, want 8", got)
	}
}

func TestDebounced_OnSettleFiresOncePerQuietWindow(t *testing.T) {
	d, mock := newMockDebounced[int](window)

	var calls []int
	d.OnSettle(func(v int) { calls = append(calls, v) })

	d.Set(1)
	mock.Add(100 * time.Millisecond)
	d.Set(2)
	mock.Add(window)

	if len(calls) != 1 || calls[0] != 2 {
		t.Errorf("OnSettle calls: got %v, want [2]", calls)
	}
}

func TestDebounced_CloseCancelsPendingTimer(t *testing.T) {
	d, mock := newMockDebounced[int](window)

	fired := false
	d.OnSettle(func(int) { fired = true })

	d.Set(5)
	d.Close()
	mock.Add(2 * window)

	if fired {
		t.Error("OnSettle fired after Close")
	}
	if got := d.Settled(); got != 0 {
		t.Errorf("Settled changed after Close: got %d", got)
	}
}

func TestDebounced_SetAfterCloseIsNoop(t *testing.T) {
	d, mock := newMockDebounced[int](window)

	d.Close()
	d.Set(5)
	mock.Add(2 * window)

	if got := d.Value(); got != 0 {
		t.Errorf("Value after post-Close Set: got %d, want 0", got)
	}
}
