package app

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/config"
)

func splitAddr(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	t.Setenv(config.EnvHost, "")
	t.Setenv(config.EnvPort, "")
	t.Setenv(config.EnvBackends, "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
	return dir
}

func TestNewApplication(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantRemote bool
		wantErr    bool
	}{
		{
			name: "simulated forwarding",
			content: `
server:
  port: 3901
backends:
  alpha: http://x
  beta: http://y
`,
		},
		{
			name: "remote forwarding",
			content: `
server:
  port: 3902
forwarding:
  mode: remote
backends:
  alpha: http://x
`,
			wantRemote: true,
		},
		{
			name: "invalid backend name",
			content: `
backends:
  a_b: http://x
`,
			wantErr: true,
		},
		{
			name: "unparseable bridge template",
			content: `
bridge:
  command: sh
  args: ["{{ .Name "]
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.content)
			cfg := NewConfig(false, dir, "1.0.0")
			cfg.LogOutput = io.Discard

			application, err := NewApplication(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			services := application.Services()
			require.NotNil(t, services.Router)
			require.NotNil(t, services.Server)
			assert.Equal(t, tt.wantRemote, services.Remote != nil)
			assert.Equal(t, "1.0.0", services.Router.Initialize().ServerInfo.Version)
			assert.Equal(t, 0, services.Registry.Len(), "nothing is registered before Run")
		})
	}
}

func TestNewApplication_DotEnvOverridesBackends(t *testing.T) {
	dir := writeConfig(t, "server:\n  port: 3903\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(config.EnvBackends+"=gamma=http://z\n"), 0644))
	// t.Setenv above registered a restore; make the variable unset so the
	// .env value is loaded.
	require.NoError(t, os.Unsetenv(config.EnvBackends))

	cfg := NewConfig(true, dir, "")
	cfg.LogOutput = io.Discard
	application, err := NewApplication(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"gamma"}, application.hub.Backends.Names())
	assert.Equal(t, "dev", application.Services().Router.Initialize().ServerInfo.Version)
}
