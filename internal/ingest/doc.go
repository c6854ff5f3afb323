// Package ingest accepts WebSocket connections from the in-page beacon and
// feeds their timing messages into monitoring sessions.
//
// Protocol: the first frame is a hello declaring the page URL and the entry
// kinds the page's PerformanceObserver supports — kinds absent from hello
// stay unsupported for the whole session. The server replies with ready and
// the generated session ID. Subsequent frames carry entry batches, the
// one-shot navigation record, resource timing collections, and finally bye.
// Malformed frames are skipped, never fatal. The endpoint is mounted at
// /ingest by pagepulsed.
package ingest
