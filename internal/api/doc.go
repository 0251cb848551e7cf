// Package api provides the HTTP REST API and WebSocket server for
// Roomcast Core.
//
// It exposes the announcement entry point, directory management
// (people, rooms, group settings), and gate toggles to user interfaces,
// and relays announcement lifecycle events to WebSocket clients.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api
