package vitals

import (
	"github.com/pagepulse/pagepulse/internal/metrics"
	"github.com/pagepulse/pagepulse/internal/timing"
)

// firstContentfulPaintName is the paint entry name carrying the FCP mark.
const firstContentfulPaintName = "first-contentful-paint"

// Observer consumes batches of raw timing entries of one kind and produces
// partial snapshot updates. Observers are stateless except where the metric
// itself is cumulative (layout shift) or single-fire (first paint).
type Observer interface {
	Kind() timing.Kind
	Observe(entries []timing.Entry) []metrics.Partial
}

// All returns a fresh observer set for one monitoring session. Observers hold
// per-session state and must not be shared across sessions.
func All() []Observer {
	return []Observer{
		NewFirstContentfulPaint(),
		NewLargestContentfulPaint(),
		NewFirstInputDelay(),
		NewLayoutShift(),
	}
}

// --- first contentful paint --------------------------------------------------

// FirstContentfulPaint scans paint entries for the first-contentful-paint
// mark and emits it once. Later sightings of the same mark are ignored.
type FirstContentfulPaint struct {
	fired bool
}

func NewFirstContentfulPaint() *FirstContentfulPaint { return &FirstContentfulPaint{} }

func (o *FirstContentfulPaint) Kind() timing.Kind { return timing.KindPaint }

func (o *FirstContentfulPaint) Observe(entries []timing.Entry) []metrics.Partial {
	if o.fired {
		return nil
	}
	for _, e := range entries {
		if e.Name != firstContentfulPaintName {
			continue
		}
		o.fired = true
		return []metrics.Partial{{FirstContentfulPaintMs: metrics.Float(e.StartTime)}}
	}
	return nil
}

// --- largest contentful paint ------------------------------------------------

// LargestContentfulPaint emits the start time of the last entry in each
// batch. The browser only appends a new largest-contentful-paint entry when a
// larger paint occurs, so the last entry of the latest batch is taken as the
// current candidate. An earlier batch's larger value is intentionally not
// retained — the latest batch is authoritative.
type LargestContentfulPaint struct{}

func NewLargestContentfulPaint() *LargestContentfulPaint { return &LargestContentfulPaint{} }

func (o *LargestContentfulPaint) Kind() timing.Kind { return timing.KindLargestContentfulPaint }

func (o *LargestContentfulPaint) Observe(entries []timing.Entry) []metrics.Partial {
	if len(entries) == 0 {
		return nil
	}
	last := entries[len(entries)-1]
	return []metrics.Partial{{LargestContentfulPaintMs: metrics.Float(last.StartTime)}}
}

// --- first input delay -------------------------------------------------------

// FirstInputDelay computes processingStart - startTime for each input entry
// that carries both fields. Entries without a processing start are skipped.
type FirstInputDelay struct{}

func NewFirstInputDelay() *FirstInputDelay { return &FirstInputDelay{} }

func (o *FirstInputDelay) Kind() timing.Kind { return timing.KindFirstInput }

func (o *FirstInputDelay) Observe(entries []timing.Entry) []metrics.Partial {
	var out []metrics.Partial
	for _, e := range entries {
		if e.ProcessingStart == nil {
			continue
		}
		delay := *e.ProcessingStart - e.StartTime
		out = append(out, metrics.Partial{FirstInputDelayMs: metrics.Float(delay)})
	}
	return out
}

// --- cumulative layout shift -------------------------------------------------

// LayoutShift accumulates shift values across the session. Shifts caused by
// recent user input are skipped entirely: they neither add to nor reset the
// accumulator. Each accepted shift emits the new running total, so the
// snapshot value is monotonically non-decreasing.
type LayoutShift struct {
	total float64
}

func NewLayoutShift() *LayoutShift { return &LayoutShift{} }

func (o *LayoutShift) Kind() timing.Kind { return timing.KindLayoutShift }

func (o *LayoutShift) Observe(entries []timing.Entry) []metrics.Partial {
	var out []metrics.Partial
	for _, e := range entries {
		if e.HadRecentInput {
			continue
		}
		o.total += e.Value
		out = append(out, metrics.Partial{CumulativeLayoutShift: metrics.Float(o.total)})
	}
	return out
}
