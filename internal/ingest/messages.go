package ingest

import "github.com/pagepulse/pagepulse/internal/timing"

// Message types accepted from the beacon.
const (
	typeHello      = "hello"
	typeEntries    = "entries"
	typeNavigation = "navigation"
	typeResources  = "resources"
	typeBye        = "bye"
)

// envelope is the wire format for every beacon message. Which fields are set
// depends on Type:
//
//	hello       page, user_agent, supports
//	entries     kind, entries
//	navigation  navigation
//	resources   resources
//	bye         (no payload)
//
// Unknown fields in any message are ignored.
type envelope struct {
	Type string `json:"type"`

	Page      string   `json:"page,omitempty"`
	UserAgent string   `json:"user_agent,omitempty"`
	Supports  []string `json:"supports,omitempty"`

	Kind    string         `json:"kind,omitempty"`
	Entries []timing.Entry `json:"entries,omitempty"`

	Navigation *timing.NavigationRecord `json:"navigation,omitempty"`
	Resources  []timing.ResourceEntry   `json:"resources,omitempty"`
}

// readyResponse acknowledges a hello and hands the beacon its session ID.
type readyResponse struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}
