// Package timing defines the raw performance timing model delivered by the
// in-page beacon: entry kinds, entries, navigation and resource records, and
// the Source interface a monitoring session observes them through.
//
// Capability probing is explicit: Source.Observe returns ErrUnsupported for
// entry kinds the page did not declare in its hello message, and callers
// branch on errors.Is rather than panicking. Feed is the in-process Source
// implementation fed by the ingest layer.
package timing
