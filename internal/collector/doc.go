// Package collector wires one session's timing source to the vitals
// observers and owns the resulting snapshot.
//
// Aggregator holds the snapshot, merges partial updates, and pushes the full
// updated snapshot to subscribers synchronously on every merge. Monitor is
// the per-session lifecycle: Start registers every observer the source
// supports (unsupported kinds log a warning and leave their metric unset),
// Close releases every registration exactly once.
package collector
