//go:build !windows

package app

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/client"
	"mcphub/internal/config"
	"mcphub/internal/registry"
	"mcphub/internal/supervisor"
	"mcphub/pkg/logging"
)

func testHubConfig(script string) config.HubConfig {
	hub := config.GetDefaultConfig()
	hub.Server = config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: 2 * time.Second}
	hub.Bridge = config.BridgeConfig{Command: "sh", Args: []string{"-c", script}}
	hub.Backends = config.Backends{
		{Name: "alpha", URL: "http://x"},
		{Name: "beta", URL: "http://y"},
	}
	return hub
}

// startHub runs the hub in the background and returns a stop function that
// cancels it and returns runHub's error.
func startHub(t *testing.T, hub config.HubConfig, launcher supervisor.Launcher) (*Services, func() error) {
	t.Helper()
	logging.InitForCLI(logging.LevelDebug, io.Discard)

	services, err := InitializeServices(hub, &Config{Version: "test", Launcher: launcher})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runHub(ctx, hub, services) }()

	stopped := false
	stop := func() error {
		if stopped {
			return nil
		}
		stopped = true
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(10 * time.Second):
			return errors.New("hub did not stop")
		}
	}
	t.Cleanup(func() { _ = stop() })
	return services, stop
}

func runningNames(reg *registry.Registry) []string {
	var names []string
	for _, b := range reg.ListRunning() {
		names = append(names, b.Name)
	}
	return names
}

func TestRunHub_EndToEnd(t *testing.T) {
	services, stop := startHub(t, testHubConfig("sleep 30"), nil)

	require.Eventually(t, func() bool { return len(services.Registry.ListRunning()) == 2 }, 5*time.Second, 20*time.Millisecond)

	c := client.New("http://"+services.Server.Addr(), 2*time.Second)
	ctx := context.Background()

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 4)

	health, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, health.Repositories)
	for _, p := range health.Processes {
		assert.NotZero(t, p.PID, "process %s", p.Name)
	}

	require.NoError(t, stop())
	assert.Equal(t, 0, services.Registry.Len(), "every bridge exit is applied before the hub returns")
	assert.Equal(t, 0, services.Supervisor.Running())
}

func TestRunHub_ReadyAfterBackendsRegistered(t *testing.T) {
	dir, err := os.MkdirTemp("", "mcphub-sd")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	sock := filepath.Join(dir, "notify.sock")
	notify, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sock, Net: "unixgram"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = notify.Close() })
	t.Setenv("NOTIFY_SOCKET", sock)

	services, _ := startHub(t, testHubConfig("sleep 30"), nil)

	require.NoError(t, notify.SetReadDeadline(time.Now().Add(10*time.Second)))
	buf := make([]byte, 256)
	n, err := notify.Read(buf)
	require.NoError(t, err)
	require.Equal(t, daemon.SdNotifyReady, string(buf[:n]))

	// No polling: READY means every backend is already routable.
	assert.Equal(t, []string{"alpha", "beta"}, runningNames(services.Registry))
	tools, err := client.New("http://"+services.Server.Addr(), 2*time.Second).ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 4)
}

func TestRunHub_BackendExitRemovesItsTools(t *testing.T) {
	script := `{{ if eq .Name "beta" }}sleep 0.3; exit 3{{ else }}sleep 30{{ end }}`
	services, _ := startHub(t, testHubConfig(script), nil)

	require.Eventually(t, func() bool {
		names := runningNames(services.Registry)
		return len(names) == 1 && names[0] == "alpha"
	}, 5*time.Second, 20*time.Millisecond)

	tools, err := client.New("http://"+services.Server.Addr(), 2*time.Second).ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "alpha_search", tools[0].Name)
	assert.Equal(t, "alpha_list", tools[1].Name)
}

type failingLauncher struct {
	supervisor.ExecLauncher
	fail string
}

func (l failingLauncher) Launch(spec supervisor.ProcessSpec) (supervisor.Process, error) {
	if spec.Backend == l.fail {
		return nil, errors.New("no such bridge")
	}
	return l.ExecLauncher.Launch(spec)
}

func TestRunHub_SpawnFailureIsIsolated(t *testing.T) {
	services, stop := startHub(t, testHubConfig("sleep 30"), failingLauncher{fail: "alpha"})

	require.Eventually(t, func() bool {
		names := runningNames(services.Registry)
		return len(names) == 1 && names[0] == "beta"
	}, 5*time.Second, 20*time.Millisecond)

	_, ok := services.Registry.Get("alpha")
	assert.False(t, ok)

	assert.NoError(t, stop())
}

func TestRunHub_BindFailure(t *testing.T) {
	logging.InitForCLI(logging.LevelDebug, io.Discard)

	first, stop := startHub(t, testHubConfig("sleep 30"), nil)
	require.Eventually(t, func() bool { return first.Registry.Len() == 2 }, 5*time.Second, 20*time.Millisecond)
	defer stop()

	hub := testHubConfig("sleep 30")
	host, port := splitAddr(t, first.Server.Addr())
	hub.Server.Host = host
	hub.Server.Port = port

	services, err := InitializeServices(hub, &Config{})
	require.NoError(t, err)
	err = runHub(context.Background(), hub, services)
	assert.ErrorContains(t, err, "failed to listen")
	assert.Equal(t, 0, services.Supervisor.Running(), "nothing is spawned when the server cannot bind")
}
