package metrics

import "github.com/pagepulse/pagepulse/internal/timing"

// Snapshot is the merged view of every web vital observed during one
// monitoring session. Numeric fields are nil until their metric is first
// observed; an unset metric contributes nothing to the health score.
type Snapshot struct {
	FirstContentfulPaintMs   *float64 `json:"first_contentful_paint_ms,omitempty"`
	LargestContentfulPaintMs *float64 `json:"largest_contentful_paint_ms,omitempty"`
	FirstInputDelayMs        *float64 `json:"first_input_delay_ms,omitempty"`

	// CumulativeLayoutShift only ever increases; see the layout-shift
	// observer for the accumulation rule.
	CumulativeLayoutShift *float64 `json:"cumulative_layout_shift,omitempty"`

	Navigation *timing.NavigationRecord `json:"navigation,omitempty"`

	// LargeResources is the top resources by transfer size, re-derived
	// wholesale on every resource timing collection.
	LargeResources []ResourceRecord `json:"large_resources,omitempty"`
}

// Partial is a sparse update: only non-nil fields are merged into a Snapshot.
// Observers emit partials touching exactly one field each.
type Partial struct {
	FirstContentfulPaintMs   *float64
	LargestContentfulPaintMs *float64
	FirstInputDelayMs        *float64
	CumulativeLayoutShift    *float64
	Navigation               *timing.NavigationRecord
	LargeResources           []ResourceRecord
}

// Merge applies p to s: present fields overwrite, absent fields are untouched.
func (s *Snapshot) Merge(p Partial) {
	if p.FirstContentfulPaintMs != nil {
		s.FirstContentfulPaintMs = cloneFloat(p.FirstContentfulPaintMs)
	}
	if p.LargestContentfulPaintMs != nil {
		s.LargestContentfulPaintMs = cloneFloat(p.LargestContentfulPaintMs)
	}
	if p.FirstInputDelayMs != nil {
		s.FirstInputDelayMs = cloneFloat(p.FirstInputDelayMs)
	}
	if p.CumulativeLayoutShift != nil {
		s.CumulativeLayoutShift = cloneFloat(p.CumulativeLayoutShift)
	}
	if p.Navigation != nil {
		nav := *p.Navigation
		s.Navigation = &nav
	}
	if p.LargeResources != nil {
		s.LargeResources = append([]ResourceRecord(nil), p.LargeResources...)
	}
}

// Clone returns a deep copy, safe to hand to subscribers and API responses.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		FirstContentfulPaintMs:   cloneFloat(s.FirstContentfulPaintMs),
		LargestContentfulPaintMs: cloneFloat(s.LargestContentfulPaintMs),
		FirstInputDelayMs:        cloneFloat(s.FirstInputDelayMs),
		CumulativeLayoutShift:    cloneFloat(s.CumulativeLayoutShift),
	}
	if s.Navigation != nil {
		nav := *s.Navigation
		out.Navigation = &nav
	}
	if s.LargeResources != nil {
		out.LargeResources = append([]ResourceRecord(nil), s.LargeResources...)
	}
	return out
}

// Float returns a pointer to v. Convenience for building partials.
func Float(v float64) *float64 { return &v }

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
