package app

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/config"
	"mcphub/internal/events"
	"mcphub/internal/registry"
	"mcphub/internal/router"
	"mcphub/internal/server"
	"mcphub/internal/supervisor"
	"mcphub/pkg/logging"
)

// Services holds every component of a running hub. The registry is created
// here and handed to each consumer; nothing in the hub reaches it through
// package state.
type Services struct {
	Registry   *registry.Registry
	Broker     *events.Broker
	Supervisor *supervisor.Supervisor
	Router     *router.Router
	Server     *server.Server

	// Remote is set when forwarding mode is remote.
	Remote *router.RemoteForwarder
}

// InitializeServices wires the registry, supervisor, router and server.
// Nothing is started.
func InitializeServices(hub config.HubConfig, cfg *Config) (*Services, error) {
	reg := registry.New()
	broker := events.NewBroker()

	sup, err := supervisor.New(supervisor.Options{
		Bridge:   hub.Bridge,
		Registry: reg,
		Launcher: cfg.Launcher,
		Broker:   broker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supervisor: %w", err)
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s := &Services{
		Registry:   reg,
		Broker:     broker,
		Supervisor: sup,
	}

	var forwarder router.Forwarder = router.SimulatedForwarder{}
	if hub.Forwarding.Mode == config.ForwardingRemote {
		s.Remote = router.NewRemoteForwarder(router.RemoteOptions{
			Backends:   reg,
			Timeout:    hub.Forwarding.Timeout,
			ClientInfo: mcp.Implementation{Name: "mcphub", Version: version},
		})
		forwarder = s.Remote
	}
	logging.Info("Bootstrap", "Forwarding mode: %s", hub.Forwarding.Mode)

	s.Router = router.New(router.Options{
		Backends:      reg,
		Forwarder:     forwarder,
		ServerVersion: version,
	})

	s.Server, err = server.New(server.Options{
		Addr:   hub.Server.Addr(),
		Router: s.Router,
		Status: reg,
		Broker: broker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return s, nil
}
