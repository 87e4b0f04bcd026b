package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a minimal valid config that can be tweaked in tests.
func validBaseConfig() *Config {
	cfg := DefaultConfig()
	cfg.Server.Port = 9000
	return cfg
}

func TestDefaultConfig_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, uint64(60), cfg.Pool.PrunePeriod)
	assert.Equal(t, uint64(0), cfg.Pool.Countdown)
	assert.Equal(t, 60*time.Second, cfg.PrunePeriod())
	assert.Equal(t, time.Duration(0), cfg.Countdown())
	assert.Empty(t, cfg.Storage.URL)
	assert.Empty(t, cfg.TLS.Keystore)
	assert.Empty(t, cfg.LocalSource.Path)
	assert.Equal(t, 5, cfg.LocalSource.ConnectAttempts)
}

func TestValidate_PortRequired(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate())

	cfg.Server.Port = 70000
	require.Error(t, cfg.Validate())

	cfg.Server.Port = 8443
	require.NoError(t, cfg.Validate())

	cfg.Server.TrustedProxies = []string{"10.0.0.1", "192.168.0.0/16"}
	require.NoError(t, cfg.Validate())
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "shutdown timeout must be > 0",
			mutate: func(c *Config) { c.Server.ShutdownTimeout = 0 },
		},
		{
			name:   "password without keystore",
			mutate: func(c *Config) { c.TLS.Password = "secret" },
		},
		{
			name:   "store url without port",
			mutate: func(c *Config) { c.Storage.URL = "localhost" },
		},
		{
			name:   "store url with unsupported scheme",
			mutate: func(c *Config) { c.Storage.URL = "http://localhost:8086" },
		},
		{
			name:   "sweep interval must be > 0",
			mutate: func(c *Config) { c.Pool.SweepInterval = 0 },
		},
		{
			name:   "accept backlog must be > 0",
			mutate: func(c *Config) { c.Pool.AcceptBacklog = 0 },
		},
		{
			name:   "malformed trusted proxy",
			mutate: func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/33"} },
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
		},
		{
			name: "rate limit enabled with zero connections per minute",
			mutate: func(c *Config) {
				c.RateLimiting.WebSocket.Enabled = true
				c.RateLimiting.WebSocket.ConnectionsPerMinute = 0
			},
		},
		{
			name: "rate limit enabled with zero burst",
			mutate: func(c *Config) {
				c.RateLimiting.WebSocket.Enabled = true
				c.RateLimiting.WebSocket.Burst = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for case %q, got nil", tc.name)
			}
		})
	}
}

func TestValidate_PruneZeroDisablesEviction(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Pool.PrunePeriod = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Duration(0), cfg.PrunePeriod())
}

func TestStoreAddress(t *testing.T) {
	cfg := validBaseConfig()

	cfg.Storage.URL = "127.0.0.1:8089"
	addr, err := cfg.StoreAddress()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8089", addr)

	cfg.Storage.URL = "udp://influx.local:8089"
	addr, err = cfg.StoreAddress()
	require.NoError(t, err)
	assert.Equal(t, "influx.local:8089", addr)

	cfg.Storage.URL = "localhost:notaport"
	_, err = cfg.StoreAddress()
	assert.Error(t, err)
}

func TestListenAddress(t *testing.T) {
	cfg := validBaseConfig()
	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddress())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Pool, cfg.Pool)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 4433
storage:
  url: udp://127.0.0.1:8089
pool:
  prune_period: 0
  countdown: 30
local_source:
  path: /tmp/sfu.sock
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4433, cfg.Server.Port)
	assert.Equal(t, "udp://127.0.0.1:8089", cfg.Storage.URL)
	assert.Equal(t, uint64(0), cfg.Pool.PrunePeriod)
	assert.Equal(t, 30*time.Second, cfg.Countdown())
	assert.Equal(t, "/tmp/sfu.sock", cfg.LocalSource.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, time.Second, cfg.Pool.SweepInterval)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RILLSTATS_PORT", "7000")
	t.Setenv("RILLSTATS_DATABASE_URL", "127.0.0.1:8089")
	t.Setenv("RILLSTATS_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8089", cfg.Storage.URL)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_EnvOverrideBadPort(t *testing.T) {
	t.Setenv("RILLSTATS_PORT", "eighty")

	_, err := Load("")
	assert.Error(t, err)
}
