// Package api provides the HTTP REST API and WebSocket server for the
// hub.
//
// It exposes account management and authentication, a read-only Home
// Assistant proxy, the daily energy history, a live MQTT event stream
// over WebSocket, and static file serving for the dashboard.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// # Authentication
//
// All protected routes take a bearer token from POST /auth/login (or the
// one-time POST /auth/register bootstrap). The middleware resolves the
// token to the live account on every request, so deleting an account or
// revoking admin takes effect immediately. WebSocket connections
// authenticate with a single-use short-lived ticket instead, so tokens
// never appear in URLs.
package api
