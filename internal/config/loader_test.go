package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// withEnv replaces the environment lookup for the duration of a test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = original })
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	withEnv(t, nil)
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Empty(t, cfg.Backends)
}

func TestLoadConfig_DefaultPathUsesHomeDir(t *testing.T) {
	withEnv(t, nil)
	home := t.TempDir()

	original := osUserHomeDir
	osUserHomeDir = func() (string, error) { return home, nil }
	defer func() { osUserHomeDir = original }()

	require.NoError(t, os.MkdirAll(filepath.Join(home, userConfigDir), 0755))
	writeConfig(t, filepath.Join(home, userConfigDir), "server:\n  port: 4100\n")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 4100, cfg.Server.Port)
}

func TestLoadConfig_PreservesBackendOrder(t *testing.T) {
	withEnv(t, nil)
	dir := t.TempDir()
	writeConfig(t, dir, `
server:
  port: 8088
backends:
  zeta: http://z.example
  alpha: http://a.example
  mid: http://m.example
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, cfg.Backends.Names())
	assert.Equal(t, "http://a.example", cfg.Backends[1].URL)
	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, DefaultHost, cfg.Server.Host)
}

func TestLoadConfig_SequenceForm(t *testing.T) {
	withEnv(t, nil)
	dir := t.TempDir()
	writeConfig(t, dir, `
backends:
  - name: alpha
    url: http://x
  - name: beta
    url: http://y
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, Backends{{Name: "alpha", URL: "http://x"}, {Name: "beta", URL: "http://y"}}, cfg.Backends)
}

func TestLoadConfig_BridgeAndForwarding(t *testing.T) {
	withEnv(t, nil)
	dir := t.TempDir()
	writeConfig(t, dir, `
bridge:
  command: /usr/local/bin/bridge
forwarding:
  mode: remote
  timeout: 2s
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/bridge", cfg.Bridge.Command)
	assert.Empty(t, cfg.Bridge.Args, "a bridge block replaces the default args")
	assert.Equal(t, ForwardingRemote, cfg.Forwarding.Mode)
	assert.Equal(t, 2*time.Second, cfg.Forwarding.Timeout)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	withEnv(t, map[string]string{
		EnvPort:     "9000",
		EnvHost:     "127.0.0.1",
		EnvBackends: "alpha=http://x, beta=http://y",
	})
	dir := t.TempDir()
	writeConfig(t, dir, "backends:\n  gamma: http://g\n")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"alpha", "beta"}, cfg.Backends.Names())
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			content: "server: [",
			wantErr: "error loading config",
		},
		{
			name:    "separator in backend name",
			content: "backends:\n  my_repo: http://x\n",
			wantErr: "cannot contain",
		},
		{
			name:    "duplicate backend",
			content: "backends:\n  - {name: a, url: http://x}\n  - {name: a, url: http://y}\n",
			wantErr: "duplicate",
		},
		{
			name:    "relative url",
			content: "backends:\n  alpha: /not/absolute\n",
			wantErr: "absolute URL",
		},
		{
			name:    "bad forwarding mode",
			content: "forwarding:\n  mode: magic\n",
			wantErr: "forwarding.mode",
		},
		{
			name:    "bad port env",
			env:     map[string]string{EnvPort: "eighty"},
			wantErr: EnvPort,
		},
		{
			name:    "bad backends env",
			env:     map[string]string{EnvBackends: "alpha"},
			wantErr: "name=url",
		},
		{
			name:    "backend not a scalar",
			content: "backends:\n  alpha:\n    url: http://x\n",
			wantErr: "must map to a URL string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withEnv(t, tt.env)
			dir := t.TempDir()
			if tt.content != "" {
				writeConfig(t, dir, tt.content)
			}

			_, err := LoadConfig(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBackends_MarshalRoundTripKeepsOrder(t *testing.T) {
	in := HubConfig{Backends: Backends{{Name: "b", URL: "http://b"}, {Name: "a", URL: "http://a"}}}

	data, err := yaml.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "b: http://b\n    a: http://a")

	var out HubConfig
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, in.Backends, out.Backends)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, LoadDotEnv(dir), "missing .env is not an error")

	key := "MCPHUB_TEST_DOTENV_VALUE"
	require.NoError(t, os.WriteFile(filepath.Join(dir, dotEnvFileName), []byte(key+"=from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv(key) })

	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-dotenv", os.Getenv(key))
}

func TestValidateBackendName(t *testing.T) {
	assert.NoError(t, ValidateBackendName("alpha-1"))
	assert.Error(t, ValidateBackendName(""))
	assert.Error(t, ValidateBackendName("a_b"))
	assert.Error(t, ValidateBackendName("a/b"))
	assert.Error(t, ValidateBackendName("a b"))
}

func TestServerConfig_ClientURL(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{host: "", want: "http://127.0.0.1:3000"},
		{host: "0.0.0.0", want: "http://127.0.0.1:3000"},
		{host: "localhost", want: "http://localhost:3000"},
		{host: "::1", want: "http://[::1]:3000"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, ServerConfig{Host: tt.host, Port: 3000}.ClientURL())
		})
	}
}
