package state

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Debounced holds an immediate value and a settled value. Every Set replaces
// the immediate value and restarts the window timer; when the window elapses
// with no newer Set, the settled value catches up to the immediate one.
// Rapid updates inside the window coalesce to the last value set.
//
// Close cancels any pending timer. A closed Debounced never settles again,
// so no callback fires after the owner is gone.
type Debounced[T any] struct {
	mu       sync.Mutex
	clk      clock.Clock
	window   time.Duration
	onSettle func(T)

	immediate T
	settled   T
	timer     *clock.Timer
	closed    bool
}

// NewDebounced creates a Debounced with the given settle window and both
// values at the zero value of T.
func NewDebounced[T any](window time.Duration) *Debounced[T] {
	return &Debounced[T]{clk: clock.New(), window: window}
}

// OnSettle registers fn to run each time the settled value changes. fn runs
// on the timer goroutine, after the internal state is updated.
func (d *Debounced[T]) OnSettle(fn func(T)) {
	d.mu.Lock()
	d.onSettle = fn
	d.mu.Unlock()
}

// Set replaces the immediate value and restarts the settle timer.
func (d *Debounced[T]) Set(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.immediate = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clk.AfterFunc(d.window, d.fire)
}

// Value returns the immediate value.
func (d *Debounced[T]) Value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.immediate
}

// Settled returns the last settled value.
func (d *Debounced[T]) Settled() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Close cancels the pending timer. Set becomes a no-op afterwards.
func (d *Debounced[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debounced[T]) fire() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.settled = d.immediate
	d.timer = nil
	v := d.settled
	fn := d.onSettle
	d.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}
