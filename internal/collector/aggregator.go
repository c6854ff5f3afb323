package collector

import (
	"log/slog"
	"sync"

	"github.com/pagepulse/pagepulse/internal/metrics"
)

// Aggregator owns one session's snapshot. Update merges a partial in and
// synchronously pushes the full updated snapshot to every subscriber, on the
// same goroutine that delivered the update — there is no batching at this
// layer.
type Aggregator struct {
	mu      sync.Mutex
	snap    metrics.Snapshot
	subs    map[int]func(metrics.Snapshot)
	nextID  int
	logging bool
}

// NewAggregator creates an empty Aggregator. When logging is true every merge
// is mirrored to the diagnostic log.
func NewAggregator(logging bool) *Aggregator {
	return &Aggregator{
		subs:    make(map[int]func(metrics.Snapshot)),
		logging: logging,
	}
}

// Update merges p into the snapshot and notifies all subscribers with a copy
// of the result.
func (a *Aggregator) Update(p metrics.Partial) {
	a.mu.Lock()
	a.snap.Merge(p)
	snap := a.snap.Clone()
	fns := make([]func(metrics.Snapshot), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	logging := a.logging
	a.mu.Unlock()

	// Info, not Debug: the option exists to make merges visible without
	// changing the process log level.
	if logging {
		slog.Info("collector: snapshot updated",
			"fcp_ms", floatAttr(snap.FirstContentfulPaintMs),
			"lcp_ms", floatAttr(snap.LargestContentfulPaintMs),
			"fid_ms", floatAttr(snap.FirstInputDelayMs),
			"cls", floatAttr(snap.CumulativeLayoutShift),
			"large_resources", len(snap.LargeResources),
		)
	}
	for _, fn := range fns {
		fn(snap)
	}
}

// Current returns a copy of the latest snapshot.
func (a *Aggregator) Current() metrics.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap.Clone()
}

// Subscribe registers fn for every future update and returns its
// unsubscribe function.
func (a *Aggregator) Subscribe(fn func(metrics.Snapshot)) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, id)
			a.mu.Unlock()
		})
	}
}

// floatAttr renders an optional metric for logging; unset metrics log as nil.
func floatAttr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
