package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sync/errgroup"

	"mcphub/internal/config"
	"mcphub/pkg/logging"
)

// runHub starts the lifecycle loop and the server, spawns every configured
// backend and blocks until ctx ends, a termination signal arrives or the
// server fails.
//
// Shutdown order:
//  1. signal every bridge process group (ShutdownAll)
//  2. stop the server, bounded by the shutdown timeout
//  3. wait for bridges to exit, killing stragglers
//  4. stop the lifecycle loop
func runHub(ctx context.Context, hub config.HubConfig, s *Services) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.Server.Listen(); err != nil {
		logging.Error("Hub", err, "Failed to bind server")
		return err
	}

	loopCtx, cancelLoop := context.WithCancel(context.Background())
	defer cancelLoop()
	g, gctx := errgroup.WithContext(loopCtx)

	g.Go(func() error { return s.Supervisor.Run(gctx) })
	g.Go(s.Server.Serve)
	if s.Remote != nil {
		sub := s.Broker.Subscribe()
		g.Go(func() error {
			defer s.Broker.Unsubscribe(sub.ID)
			s.Remote.Watch(gctx, sub)
			return nil
		})
	}

	if err := s.Supervisor.StartAll(hub.Backends); err != nil {
		// Spawn failures are contained: the backend is simply absent.
		logging.Warn("Hub", "Some backends could not be started: %v", err)
	}
	logging.Info("Hub", "Serving %d backend(s) on %s", len(hub.Backends), s.Server.Addr())
	notifySystemd(daemon.SdNotifyReady)

	select {
	case <-sigCtx.Done():
		logging.Info("Hub", "Shutting down")
	case <-gctx.Done():
		logging.Warn("Hub", "A hub component stopped unexpectedly, shutting down")
	}
	notifySystemd(daemon.SdNotifyStopping)

	timeout := hub.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}

	s.Supervisor.ShutdownAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Server.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Hub", "Server did not shut down cleanly: %v", err)
	}

	if err := s.Supervisor.Close(timeout); err != nil {
		logging.Warn("Hub", "%v", err)
	}
	if s.Remote != nil {
		s.Remote.Close()
	}

	// Exit events still queued are applied by the loop's final drain.
	cancelLoop()

	err := g.Wait()
	s.Broker.Close()
	return err
}

func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Debug("Hub", "systemd notification failed: %v", err)
		return
	}
	if sent {
		logging.Debug("Hub", "Notified systemd: %s", state)
	}
}
