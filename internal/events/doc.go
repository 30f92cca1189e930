// Package events defines backend lifecycle events and a non-blocking
// fan-out broker.
//
// The supervisor publishes one event per transition (starting, running,
// exited, spawn_failed). Consumers such as the remote forwarder and the
// /events stream subscribe and react independently:
//
//	sub := broker.Subscribe()
//	defer broker.Unsubscribe(sub.ID)
//	for ev := range sub.C {
//		...
//	}
package events
