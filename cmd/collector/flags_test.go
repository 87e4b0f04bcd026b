package main

import (
	"testing"

	"rillstats/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags_OverridesOnlyGivenValues(t *testing.T) {
	opts, err := parseFlags([]string{"-p", "8443", "-d", "udp://influx:8089", "--prune-period", "0"})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Pool.Countdown = 30
	cfg.Logging.Level = "warn"
	opts.apply(cfg)

	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "udp://influx:8089", cfg.Storage.URL)
	assert.Equal(t, uint64(0), cfg.Pool.PrunePeriod)
	assert.Equal(t, uint64(30), cfg.Pool.Countdown, "file value kept when flag absent")
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestParseFlags_TLSAndLocalSource(t *testing.T) {
	opts, err := parseFlags([]string{
		"--port=9000", "-t", "server.p12", "--tls-password", "secret",
		"-c", "120", "--unix-path", "/tmp/sfu.sock", "--log-level", "debug",
	})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	opts.apply(cfg)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "server.p12", cfg.TLS.Keystore)
	assert.Equal(t, "secret", cfg.TLS.Password)
	assert.Equal(t, uint64(120), cfg.Pool.Countdown)
	assert.Equal(t, "/tmp/sfu.sock", cfg.LocalSource.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParseFlags_DefaultConfigPath(t *testing.T) {
	opts, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "configs/config.yaml", opts.configPath)
}

func TestParseFlags_Rejects(t *testing.T) {
	_, err := parseFlags([]string{"--port", "not-a-number"})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--no-such-flag"})
	assert.Error(t, err)
}
