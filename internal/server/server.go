package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"mcphub/internal/events"
	"mcphub/internal/registry"
	"mcphub/internal/router"
	"mcphub/pkg/logging"
)

const subsystem = "Server"

const (
	// DefaultReadHeaderTimeout is the default timeout for reading request headers.
	DefaultReadHeaderTimeout = 10 * time.Second
	// DefaultIdleTimeout is the default idle timeout for keepalive connections.
	DefaultIdleTimeout = 120 * time.Second
)

// StatusSource is the registry view needed by the health endpoint.
type StatusSource interface {
	ListRunning() []registry.Backend
	Snapshot() []registry.Backend
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address in host:port form.
	Addr   string
	Router *router.Router
	Status StatusSource
	// Broker feeds the /events stream. The stream is disabled when nil.
	Broker *events.Broker
}

// Server exposes the router over HTTP and a WebSocket JSON-RPC channel.
type Server struct {
	router *router.Router
	status StatusSource
	broker *events.Broker

	httpServer *http.Server
	listener   net.Listener

	// done is closed on shutdown so long-lived streams return.
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	channels map[string]net.Conn
	wg       sync.WaitGroup
}

// New creates a Server. It does not bind the address; call Listen for that.
func New(opts Options) (*Server, error) {
	if opts.Router == nil {
		return nil, errors.New("server: router is required")
	}
	if opts.Status == nil {
		return nil, errors.New("server: status source is required")
	}

	s := &Server{
		router:   opts.Router,
		status:   opts.Status,
		broker:   opts.Broker,
		done:     make(chan struct{}),
		channels: make(map[string]net.Conn),
	}
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		IdleTimeout:       DefaultIdleTimeout,
	}
	return s, nil
}

// Handler returns the HTTP handler with every route mounted.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /mcp/tools", s.handleListTools)
	mux.HandleFunc("POST /mcp/tools/{toolName}", s.handleCallTool)
	mux.HandleFunc("GET /mcp/resources", s.handleListResources)
	mux.HandleFunc("GET /mcp/resources/{path...}", s.handleReadResource)

	mux.HandleFunc("POST /mcp", s.handleRPC)
	mux.HandleFunc("GET /ws", s.handleChannel)
	mux.HandleFunc("GET /events", s.handleEvents)

	return mux
}

// Listen binds the configured address. After it returns, Addr reports the
// bound address, which matters when port 0 was requested.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	logging.Info(subsystem, "Listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}

// Serve accepts connections until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	if err := s.httpServer.Serve(s.listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, ends the event streams, closes every
// open channel and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	for id, conn := range s.channels {
		logging.Debug(subsystem, "Closing channel %s", id)
		_ = conn.Close()
	}
	s.mu.Unlock()

	err := s.httpServer.Shutdown(ctx)

	// Hijacked channel connections are not tracked by http.Server.
	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

func (s *Server) trackChannel(id string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.channels[id] = conn
	s.wg.Add(1)
	return true
}

func (s *Server) untrackChannel(id string) {
	s.mu.Lock()
	delete(s.channels, id)
	s.mu.Unlock()
	s.wg.Done()
}

// ChannelCount returns the number of open WebSocket channels.
func (s *Server) ChannelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug(subsystem, "Failed to write response: %v", err)
	}
}

// ErrorBody is the JSON body of every failed HTTP request.
type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorBody{Error: err.Error(), Kind: string(router.KindOf(err))})
}
