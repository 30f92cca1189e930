// Package app bootstraps and runs the hub.
//
// # Bootstrap
//
// NewApplication initializes logging, loads .env and config.yaml from the
// configuration directory and wires the components:
//
//	registry.Registry  <- written only by the supervisor's lifecycle loop
//	events.Broker      <- lifecycle events for /events and the remote forwarder
//	supervisor         <- one bridge process per configured backend
//	router             <- simulated or remote forwarding
//	server             <- HTTP routes, WebSocket channel, SSE stream
//
// The registry is created here and passed to every consumer.
//
// # Run
//
// Run binds the server, starts the lifecycle loop and spawns the backends.
// SIGINT or SIGTERM triggers shutdown: every bridge process group is
// signalled, the server is stopped within the shutdown timeout and Run
// returns nil, so the process exits with status 0. When systemd supervises
// the hub, READY=1 and STOPPING=1 are reported through sd_notify.
package app
