// Package state provides two generic coalescing primitives used wherever
// bursty updates need delayed or batched propagation: Debounced (settle after
// a quiet window) and Batcher (one commit per scheduling turn).
//
// Both run on a benbjohnson/clock so tests drive time deterministically, and
// both guarantee that no callback fires after Close.
package state
