package supervisor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync"
	"time"

	"mcphub/internal/config"
	"mcphub/internal/events"
	"mcphub/internal/registry"
	"mcphub/pkg/logging"
)

const (
	subsystem = "Supervisor"

	lifecycleBuffer = 256
	maxLineSize     = 1024 * 1024
)

// Options configures a Supervisor.
type Options struct {
	Bridge   config.BridgeConfig
	Registry *registry.Registry
	// Launcher defaults to ExecLauncher.
	Launcher Launcher
	// Broker receives every lifecycle event after it has been applied to the
	// registry. Optional.
	Broker *events.Broker
}

// lifecycle is an event plus the process handle it concerns, if any. A
// lifecycle with a non-nil barrier carries no event; the loop closes the
// barrier once everything queued before it has been applied.
type lifecycle struct {
	event   events.Event
	proc    Process
	barrier chan struct{}
}

// Supervisor spawns one bridge process per backend, streams its output to
// the log, and observes its exit. Registry mutations are funneled through a
// single loop (Run) fed by lifecycle events, so the supervisor is the only
// writer of the registry.
type Supervisor struct {
	bridge   *bridgeTemplate
	launcher Launcher
	registry *registry.Registry
	broker   *events.Broker

	lifecycle chan lifecycle
	stopped   chan struct{}
	stopOnce  sync.Once

	mu           sync.Mutex
	procs        map[string]Process
	shuttingDown bool

	watchers sync.WaitGroup
}

// New creates a supervisor. The bridge templates are parsed eagerly so a bad
// config fails before anything is spawned.
func New(opts Options) (*Supervisor, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	bridge, err := parseBridge(opts.Bridge)
	if err != nil {
		return nil, err
	}
	launcher := opts.Launcher
	if launcher == nil {
		launcher = ExecLauncher{}
	}

	return &Supervisor{
		bridge:    bridge,
		launcher:  launcher,
		registry:  opts.Registry,
		broker:    opts.Broker,
		lifecycle: make(chan lifecycle, lifecycleBuffer),
		stopped:   make(chan struct{}),
		procs:     make(map[string]Process),
	}, nil
}

// Run applies lifecycle events to the registry until ctx is cancelled.
// Events already queued when ctx ends are still applied.
func (s *Supervisor) Run(ctx context.Context) error {
	logging.Debug(subsystem, "Lifecycle loop started")
	defer s.stopOnce.Do(func() { close(s.stopped) })

	for {
		select {
		case <-ctx.Done():
			s.drain()
			logging.Debug(subsystem, "Lifecycle loop stopped")
			return nil
		case lc := <-s.lifecycle:
			s.apply(lc)
		}
	}
}

func (s *Supervisor) drain() {
	for {
		select {
		case lc := <-s.lifecycle:
			s.apply(lc)
		default:
			return
		}
	}
}

func (s *Supervisor) apply(lc lifecycle) {
	if lc.barrier != nil {
		close(lc.barrier)
		return
	}
	ev := lc.event
	switch ev.Type {
	case events.EventStarting:
		if err := s.registry.Register(ev.Backend, ev.Endpoint); err != nil {
			logging.Error(subsystem, err, "Cannot register backend %s", ev.Backend)
			return
		}
	case events.EventRunning:
		if err := s.registry.MarkRunning(ev.Backend, lc.proc); err != nil {
			logging.Error(subsystem, err, "Cannot mark backend %s running", ev.Backend)
			return
		}
	case events.EventExited:
		code := -1
		if ev.ExitCode != nil {
			code = *ev.ExitCode
		}
		s.registry.MarkExited(ev.Backend, code)
	case events.EventSpawnFailed:
		s.registry.Remove(ev.Backend)
	}

	if s.broker != nil {
		s.broker.Publish(ev)
	}
}

func (s *Supervisor) emit(lc lifecycle) {
	select {
	case s.lifecycle <- lc:
	case <-s.stopped:
		logging.Debug(subsystem, "Dropping %s event for %s after lifecycle loop stopped", lc.event.Type, lc.event.Backend)
	}
}

// flush blocks until the lifecycle loop has applied every event emitted so
// far, or until the loop has stopped.
func (s *Supervisor) flush() {
	done := make(chan struct{})
	select {
	case s.lifecycle <- lifecycle{barrier: done}:
	case <-s.stopped:
		return
	}
	select {
	case <-done:
	case <-s.stopped:
	}
}

// StartAll spawns a bridge for every backend in order. A backend that fails
// to spawn is logged and skipped; the others still start. The returned error
// joins every SpawnError and is nil when all backends started. When StartAll
// returns, the registry already reflects every spawn, so Run must be active.
func (s *Supervisor) StartAll(backends config.Backends) error {
	var errs []error
	started := 0
	for _, def := range backends {
		if err := s.start(def); err != nil {
			logging.Error(subsystem, err, "Backend %s will not be available", def.Name)
			errs = append(errs, err)
			continue
		}
		started++
	}
	s.flush()
	logging.Info(subsystem, "Started %d of %d backends", started, len(backends))
	return errors.Join(errs...)
}

// start spawns one backend. Panics from the launcher are turned into a
// SpawnError so a single misbehaving backend cannot abort StartAll.
func (s *Supervisor) start(def config.BackendDefinition) (err error) {
	s.emit(lifecycle{event: startingEvent(def)})

	defer func() {
		if r := recover(); r != nil {
			err = &SpawnError{Backend: def.Name, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			s.emit(lifecycle{event: events.SpawnFailed(def.Name, err)})
		}
	}()

	spec, err := s.bridge.render(def)
	if err != nil {
		return &SpawnError{Backend: def.Name, Err: err}
	}

	logging.Debug(subsystem, "Spawning backend %s: %s %v", def.Name, spec.Command, spec.Args)
	proc, err := s.launcher.Launch(spec)
	if err != nil {
		return &SpawnError{Backend: def.Name, Err: err}
	}

	s.mu.Lock()
	s.procs[def.Name] = proc
	s.mu.Unlock()

	logging.Info(subsystem, "Backend %s running (pid %d) for %s", def.Name, proc.PID(), def.URL)
	s.emit(lifecycle{event: events.Running(def.Name, proc.PID()), proc: proc})

	s.watchers.Add(1)
	go s.watch(def.Name, proc)
	return nil
}

func startingEvent(def config.BackendDefinition) events.Event {
	ev := events.New(events.EventStarting, def.Name)
	ev.Endpoint = def.URL
	return ev
}

// watch streams the process output and reports its exit. The exit is
// reported as soon as the bridge itself exits, even when a descendant still
// holds its output open; the streams are awaited afterwards.
func (s *Supervisor) watch(name string, proc Process) {
	defer s.watchers.Done()

	pid := proc.PID()
	log := logging.With("Backend:"+name, slog.Int("pid", pid))

	var streams sync.WaitGroup
	streams.Add(2)
	go func() {
		defer streams.Done()
		streamLines(proc.Stdout(), log.With(slog.String("stream", "stdout")).Info)
	}()
	go func() {
		defer streams.Done()
		streamLines(proc.Stderr(), log.With(slog.String("stream", "stderr")).Warn)
	}()

	code, err := proc.Wait()
	if err != nil {
		logging.Error(subsystem, err, "Failed to wait for backend %s", name)
	}
	s.onExit(name, pid, code)
	streams.Wait()
}

// onExit releases the handle and schedules the registry removal.
func (s *Supervisor) onExit(name string, pid, code int) {
	s.mu.Lock()
	if current, ok := s.procs[name]; ok && current.PID() == pid {
		delete(s.procs, name)
	}
	shuttingDown := s.shuttingDown
	s.mu.Unlock()

	if shuttingDown {
		logging.Info(subsystem, "Backend %s exited with code %d during shutdown", name, code)
	} else {
		logging.Warn(subsystem, "Backend %s exited with code %d", name, code)
	}
	s.emit(lifecycle{event: events.Exited(name, pid, code)})
}

func streamLines(r io.Reader, logLine func(format string, args ...interface{})) {
	if r == nil {
		return
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		logLine("%s", scanner.Text())
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		logLine("output stream error: %v", err)
		// Keep draining so the process never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

// handles returns the live processes sorted by backend name.
func (s *Supervisor) handles() []namedProcess {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]namedProcess, 0, len(s.procs))
	for _, name := range slices.Sorted(maps.Keys(s.procs)) {
		result = append(result, namedProcess{name: name, proc: s.procs[name]})
	}
	return result
}

type namedProcess struct {
	name string
	proc Process
}

// Running returns the number of bridge processes that have not exited yet.
func (s *Supervisor) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// ShutdownAll sends a termination signal to every bridge process group. It
// does not wait for the processes to exit.
func (s *Supervisor) ShutdownAll() {
	s.mu.Lock()
	s.shuttingDown = true
	s.mu.Unlock()

	for _, np := range s.handles() {
		if err := np.proc.Terminate(); err != nil {
			logging.Warn(subsystem, "Failed to terminate backend %s (pid %d): %v", np.name, np.proc.PID(), err)
			continue
		}
		logging.Info(subsystem, "Sent termination signal to backend %s (pid %d)", np.name, np.proc.PID())
	}
}

// Close terminates every bridge and waits up to timeout for them to exit,
// killing whatever is left afterwards.
func (s *Supervisor) Close(timeout time.Duration) error {
	s.ShutdownAll()

	done := make(chan struct{})
	go func() {
		s.watchers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
	}

	remaining := s.handles()
	for _, np := range remaining {
		logging.Warn(subsystem, "Backend %s did not exit within %s, killing", np.name, timeout)
		if err := np.proc.Kill(); err != nil {
			logging.Error(subsystem, err, "Failed to kill backend %s", np.name)
		}
	}

	select {
	case <-done:
	case <-time.After(timeout):
		logging.Warn(subsystem, "Gave up waiting for %d backend(s) after kill", len(remaining))
	}
	if len(remaining) > 0 {
		return fmt.Errorf("%d backend(s) did not exit within %s and were killed", len(remaining), timeout)
	}
	return nil
}
