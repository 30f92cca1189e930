// Package registry holds the table of backends known to the hub.
//
// A backend is registered in StateStarting, moves to StateRunning once the
// supervisor has spawned its process, and is removed on exit. Listing order
// is registration order, which keeps capability listings and health reports
// deterministic.
package registry
