// Package router maps protocol methods onto the aggregated backends.
//
// The dispatch table is closed: initialize, tools/list, tools/call,
// resources/list and resources/read. Anything else fails with
// KindUnknownMethod. tools/call splits the tool name into backend and
// action; the backend must be running and the action must be one of the
// aggregator's actions.
//
// Results of tools/call and resources/read come from a Forwarder. The
// SimulatedForwarder answers with placeholder content; the RemoteForwarder
// calls the backend endpoint through an MCP streamable HTTP client.
//
// Both transports share the JSON-RPC codec in this package. Router
// failures are reported with code -32000, unparseable messages with -32700
// and envelopes without a method with -32600. Every request with an id gets
// exactly one response echoing that id.
package router
