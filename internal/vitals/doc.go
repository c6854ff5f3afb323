// Package vitals implements the per-metric observers that turn raw timing
// entries into partial snapshot updates: first contentful paint, largest
// contentful paint, first input delay, and cumulative layout shift.
//
// Each observer is polymorphic over a single capability — consume a batch of
// entries of its kind, produce zero or more partials. All() builds a fresh
// set for one session; observers carry per-session state and are not shared.
package vitals
