package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"mcphub/internal/config"
	"mcphub/pkg/logging"
)

// Application bootstraps and runs the hub.
//
// Initialization happens in two phases:
//  1. NewApplication: logging, .env, config.yaml, service wiring
//  2. Run: spawn backends, serve, wait for a termination signal
type Application struct {
	config   *Config
	hub      config.HubConfig
	services *Services
}

// NewApplication performs the bootstrap sequence. A debug flag wins over the
// configured log level.
func NewApplication(cfg *Config) (*Application, error) {
	var logOutput io.Writer = os.Stdout
	if cfg.LogOutput != nil {
		logOutput = cfg.LogOutput
	}
	logging.InitForCLI(logging.LevelInfo, logOutput)

	if err := config.LoadDotEnv(cfg.ConfigPath); err != nil {
		logging.Error("Bootstrap", err, "Failed to load .env")
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	hub, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level := logging.ParseLevel(hub.LogLevel)
	if cfg.Debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, logOutput)

	services, err := InitializeServices(hub, cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		hub:      hub,
		services: services,
	}, nil
}

// Services exposes the wired components.
func (a *Application) Services() *Services {
	return a.services
}

// Run starts every configured backend and serves until ctx is cancelled or
// SIGINT/SIGTERM arrives. A signal-triggered shutdown returns nil.
func (a *Application) Run(ctx context.Context) error {
	return runHub(ctx, a.hub, a.services)
}
