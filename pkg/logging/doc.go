// Package logging provides the structured logging used throughout mcphub.
//
// It is a thin layer over the standard slog package that tags every record
// with a subsystem and keeps the call sites short:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Loaded %d backends", n)
//	logging.Debug("Router", "Dispatching %s", method)
//	logging.Warn("Supervisor", "Backend %s exited with code %d", name, code)
//	logging.Error("HTTP", err, "Listener failed")
//
// # Subsystems
//
//   - Bootstrap: application initialization and shutdown
//   - Config: configuration loading and validation
//   - Registry: backend table mutations
//   - Supervisor: subprocess lifecycle
//   - Backend:<name>: output lines streamed from a backend subprocess
//   - Router: protocol dispatch
//   - HTTP, Channel, Events: transport adapters
//
// # Bound loggers
//
// When many records share context, With returns a Logger carrying fixed
// attributes:
//
//	out := logging.With("Backend:alpha", slog.String("stream", "stdout"))
//	out.Info("%s", line)
//
// All functions are safe for concurrent use.
package logging
