// Package hub implements the dashboard WebSocket stream.
//
// Hub manages a set of connected clients and broadcasts the session overview
// on a periodic refresh tick plus whenever sessions change — change
// notifications are coalesced per scheduling turn so entry bursts produce a
// single broadcast.
//
// Message format sent to clients:
//
//	{
//	  "event": "overview",
//	  "data":  { /* same schema as GET /api/v1/overview */ }
//	}
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by pagepulsed.
package hub
