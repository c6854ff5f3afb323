// Package metrics defines the per-session web-vitals snapshot, the sparse
// Partial updates observers emit, and the large-resource filter.
package metrics
