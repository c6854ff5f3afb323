package state

import (
	"sync"

	"github.com/benbjohnson/clock"
)

// Batcher coalesces partial updates submitted in the same scheduling turn
// into a single committed change. Update merges into a pending accumulator
// and schedules one flush on the next tick; the flush folds the accumulator
// into the committed value and clears it. Later fields win within a turn.
//
// Close cancels a pending flush, so nothing commits after teardown.
type Batcher[T any] struct {
	mu    sync.Mutex
	clk   clock.Clock
	merge func(dst, src T) T

	committed T
	pending   T
	dirty     bool
	timer     *clock.Timer
	onCommit  func(T)
	closed    bool
}

// NewBatcher creates a Batcher whose merge function folds one partial into
// another. merge must treat its first argument as the older value.
func NewBatcher[T any](merge func(dst, src T) T) *Batcher[T] {
	return &Batcher[T]{clk: clock.New(), merge: merge}
}

// OnCommit registers fn to run with the new committed value after each flush.
func (b *Batcher[T]) OnCommit(fn func(T)) {
	b.mu.Lock()
	b.onCommit = fn
	b.mu.Unlock()
}

// Update merges u into the pending accumulator. The first Update of a turn
// schedules the flush; further Updates before the flush only extend the
// accumulator.
func (b *Batcher[T]) Update(u T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.pending = b.merge(b.pending, u)
	b.dirty = true
	if b.timer == nil {
		b.timer = b.clk.AfterFunc(0, b.flush)
	}
}

// Committed returns the last committed value.
func (b *Batcher[T]) Committed() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// Close cancels any pending flush. Update becomes a no-op afterwards.
func (b *Batcher[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Batcher[T]) flush() {
	b.mu.Lock()
	if b.closed || !b.dirty {
		b.timer = nil
		b.mu.Unlock()
		return
	}
	b.committed = b.merge(b.committed, b.pending)
	var zero T
	b.pending = zero
	b.dirty = false
	b.timer = nil
	v := b.committed
	fn := b.onCommit
	b.mu.Unlock()

	if fn != nil {
		fn(v)
	}
}
