package registry

import (
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a backend.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	// StateExited is terminal. Entries reaching it are removed from the
	// registry and only ever observed on the value returned by MarkExited.
	StateExited State = "exited"
)

var (
	ErrAlreadyRegistered = errors.New("backend already registered")
	ErrNotRegistered     = errors.New("backend not registered")
	ErrHandleAssigned    = errors.New("backend already has a process handle")
)

// Handle is the registry's view of a process owned by the supervisor.
// The registry only keeps the reference for reporting; it never signals it.
type Handle interface {
	PID() int
}

// Backend is one entry of the registry.
type Backend struct {
	Name     string
	Endpoint string
	State    State
	Handle   Handle
	ExitCode *int
}

// Registry is the in-memory table of known backends. The supervisor is its
// only writer; routers, aggregators and transports read snapshots. All
// methods are safe for concurrent use and never block on I/O.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]*Backend
	order    []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		backends: make(map[string]*Backend),
	}
}

// Register adds a backend in StateStarting.
func (r *Registry) Register(name, endpoint string) error {
	if name == "" {
		return fmt.Errorf("cannot register backend with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}

	r.backends[name] = &Backend{
		Name:     name,
		Endpoint: endpoint,
		State:    StateStarting,
	}
	r.order = append(r.order, name)
	return nil
}

// MarkRunning attaches the process handle and moves the backend to StateRunning.
func (r *Registry) MarkRunning(name string, handle Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.backends[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	if b.Handle != nil {
		return fmt.Errorf("%w: %s", ErrHandleAssigned, name)
	}

	b.Handle = handle
	b.State = StateRunning
	return nil
}

// MarkExited records the exit code and drops the backend. The returned value
// is the final state of the entry.
func (r *Registry) MarkExited(name string, code int) (Backend, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.backends[name]
	if !exists {
		return Backend{}, false
	}

	final := *b
	final.State = StateExited
	final.ExitCode = &code

	r.removeLocked(name)
	return final, true
}

// Remove drops a backend without recording an exit, used when a spawn fails.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; !exists {
		return false
	}
	r.removeLocked(name)
	return true
}

func (r *Registry) removeLocked(name string) {
	delete(r.backends, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the named backend.
func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.backends[name]
	if !exists {
		return Backend{}, false
	}
	return *b, true
}

// IsRunning reports whether name is a backend in StateRunning.
func (r *Registry) IsRunning(name string) bool {
	b, ok := r.Get(name)
	return ok && b.State == StateRunning
}

// ListRunning returns running backends in registration order.
func (r *Registry) ListRunning() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Backend, 0, len(r.order))
	for _, name := range r.order {
		if b := r.backends[name]; b.State == StateRunning {
			result = append(result, *b)
		}
	}
	return result
}

// Snapshot returns every known backend, whatever its state, in registration order.
func (r *Registry) Snapshot() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Backend, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, *r.backends[name])
	}
	return result
}

// Len returns the number of known backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
