package api

import "github.com/pagepulse/pagepulse/internal/metrics"

// OverviewResponse is the payload for GET /api/v1/overview and the body of
// every dashboard stream broadcast.
type OverviewResponse struct {
	SessionCount   int              `json:"session_count"`
	AvgScore       float64          `json:"avg_score"`
	GoodCount      int              `json:"good_count"`
	NeedsWorkCount int              `json:"needs_work_count"`
	PoorCount      int              `json:"poor_count"`
	ViolationCount int              `json:"violation_count"`
	Sessions       []SessionSummary `json:"sessions"`
	GeneratedAt    string           `json:"generated_at"` // RFC3339
}

// SessionSummary is one session entry in the overview and session list.
type SessionSummary struct {
	SessionID                string   `json:"session_id"`
	Page                     string   `json:"page"`
	UserAgent                string   `json:"user_agent,omitempty"`
	Score                    int      `json:"score"`
	Rating                   string   `json:"rating"`
	FirstContentfulPaintMs   *float64 `json:"first_contentful_paint_ms,omitempty"`
	LargestContentfulPaintMs *float64 `json:"largest_contentful_paint_ms,omitempty"`
	FirstInputDelayMs        *float64 `json:"first_input_delay_ms,omitempty"`
	CumulativeLayoutShift    *float64 `json:"cumulative_layout_shift,omitempty"`
	LargeResourceCount       int      `json:"large_resource_count"`
	StartedAt                string   `json:"started_at"` // RFC3339
	LastSeen                 string   `json:"last_seen"`  // RFC3339
}

// SessionDetail is the payload for GET /api/v1/sessions/{id}: the summary
// plus the full snapshot including navigation timing and large resources.
type SessionDetail struct {
	SessionSummary
	Snapshot metrics.Snapshot `json:"snapshot"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
