// Package api provides the read-only HTTP status API and WebSocket event
// stream for the topics translator.
//
// Routes (all under /api/v1):
//
//	GET /health    liveness plus dependency checks; 503 when degraded
//	GET /status    connection state, routing counters, runtime figures
//	GET /mappings  the loaded mapping table in document order
//	GET /audit     paged audit journal (when the database is enabled)
//	GET /ws        WebSocket stream of "forward" and "connection" events
//
// The server follows the same lifecycle as the other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// The Hub is created before the router and connection manager so it can be
// registered with them as a router.Recorder and connection.Observer.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
