// Package client is the hub's own client, used by the status and console
// commands.
//
// Client covers the synchronous HTTP routes and follows the /events stream.
// Channel speaks JSON-RPC over the WebSocket endpoint; its calls are
// serialized, which matches the hub's in-order replies.
package client
