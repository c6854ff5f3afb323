// Package api implements the REST endpoints for dashboards and tooling:
//
//	GET /api/v1/overview      score distribution + session summaries
//	GET /api/v1/sessions      all live sessions
//	GET /api/v1/sessions/{id} one session with its full snapshot
//	GET /api/v1/violations    firing and recently resolved budget violations
//
// BuildOverview is shared with the WebSocket stream hub so both surfaces
// serve the same payload shape.
package api
