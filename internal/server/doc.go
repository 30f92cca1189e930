// Package server exposes the hub to clients.
//
// Two transports share one router.Router:
//
//   - a synchronous HTTP mapping with one route per router operation
//   - a persistent WebSocket channel carrying JSON-RPC 2.0 envelopes
//
// # HTTP routes
//
//	GET  /health                  registry snapshot and running backends
//	GET  /mcp/tools               {tools: [...]}
//	POST /mcp/tools/{toolName}    body {arguments} -> {result} or {error}
//	GET  /mcp/resources           {resources: [...]}
//	GET  /mcp/resources/{path...} contents of repo://{path}
//	POST /mcp                     one JSON-RPC envelope per request
//	GET  /ws                      WebSocket JSON-RPC channel
//	GET  /events                  backend lifecycle events (SSE)
//
// Router failures are answered with status 500 and an ErrorBody; the error
// kind is carried in the body, never in the status code. A body that cannot
// be decoded gets 400.
//
// # Channel
//
// Each WebSocket connection is served by a single goroutine, so replies
// are written in request order. A malformed message gets an error reply
// and the channel stays open. Shutdown closes every open channel.
package server
