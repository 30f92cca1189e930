package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a backend lifecycle transition.
type EventType string

const (
	// EventStarting is emitted once a backend is registered and before its
	// process is spawned.
	EventStarting EventType = "starting"

	// EventRunning is emitted after the bridge process was spawned.
	EventRunning EventType = "running"

	// EventExited is emitted when the bridge process terminated.
	EventExited EventType = "exited"

	// EventSpawnFailed is emitted when the bridge process could not be started.
	EventSpawnFailed EventType = "spawn_failed"
)

// Event is a single backend lifecycle notification.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Backend   string    `json:"backend"`
	Endpoint  string    `json:"endpoint,omitempty"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  *int      `json:"exitCode,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an event with a fresh ID and the current time.
func New(eventType EventType, backend string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Backend:   backend,
		Timestamp: time.Now(),
	}
}

// Running builds an EventRunning for the given process id.
func Running(backend string, pid int) Event {
	e := New(EventRunning, backend)
	e.PID = pid
	return e
}

// Exited builds an EventExited carrying the exit code.
func Exited(backend string, pid, code int) Event {
	e := New(EventExited, backend)
	e.PID = pid
	e.ExitCode = &code
	return e
}

// SpawnFailed builds an EventSpawnFailed carrying the spawn error.
func SpawnFailed(backend string, err error) Event {
	e := New(EventSpawnFailed, backend)
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
