// Package session owns the registry of live monitoring sessions, one per
// page view. Each session bundles a timing feed, its monitor, and a
// debounced settled snapshot; the registry evicts idle sessions on a TTL so
// every observer registration and pending timer is released when the page
// view is gone.
package session
