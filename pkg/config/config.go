package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port                int           `yaml:"port"`
		ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
		MaxMessageSizeBytes int64         `yaml:"max_message_size_bytes"`
		// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
		// believed. Empty trusts none.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"server"`

	TLS struct {
		Keystore string `yaml:"keystore"` // PKCS#12 file
		Password string `yaml:"password"`
	} `yaml:"tls"`

	Storage struct {
		URL         string `yaml:"url"`
		PayloadSize int    `yaml:"payload_size"`
	} `yaml:"storage"`

	Pool struct {
		PrunePeriod   uint64        `yaml:"prune_period"` // seconds, 0 disables eviction
		Countdown     uint64        `yaml:"countdown"`    // seconds, 0 runs indefinitely
		SweepInterval time.Duration `yaml:"sweep_interval"`
		AcceptBacklog int           `yaml:"accept_backlog"`
	} `yaml:"pool"`

	LocalSource struct {
		Path            string `yaml:"path"`
		ConnectAttempts int    `yaml:"connect_attempts"`
	} `yaml:"local_source"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		WebSocket struct {
			Enabled              bool `yaml:"enabled"`
			ConnectionsPerMinute int  `yaml:"connections_per_minute"`
			Burst                int  `yaml:"burst"`
		} `yaml:"websocket"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}
	if c.Server.MaxMessageSizeBytes < 0 {
		return fmt.Errorf("server.max_message_size_bytes must be >= 0")
	}
	for _, proxy := range c.Server.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				return fmt.Errorf("server.trusted_proxies: %q is neither an IP nor a CIDR", proxy)
			}
		}
	}

	// TLS
	if c.TLS.Password != "" && c.TLS.Keystore == "" {
		return fmt.Errorf("tls.password is set but tls.keystore is empty")
	}

	// Storage
	if c.Storage.URL != "" {
		if _, err := c.StoreAddress(); err != nil {
			return fmt.Errorf("storage.url: %w", err)
		}
	}
	if c.Storage.PayloadSize < 0 {
		return fmt.Errorf("storage.payload_size must be >= 0")
	}

	// Pool
	if c.Pool.SweepInterval <= 0 {
		return fmt.Errorf("pool.sweep_interval must be > 0")
	}
	if c.Pool.AcceptBacklog <= 0 {
		return fmt.Errorf("pool.accept_backlog must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	// Rate limiting
	if c.RateLimiting.WebSocket.Enabled {
		if c.RateLimiting.WebSocket.ConnectionsPerMinute <= 0 {
			return fmt.Errorf("rate_limiting.websocket.connections_per_minute must be > 0 when enabled")
		}
		if c.RateLimiting.WebSocket.Burst <= 0 {
			return fmt.Errorf("rate_limiting.websocket.burst must be > 0 when enabled")
		}
	}

	return nil
}

// PrunePeriod returns the idle period after which a silent connection is evicted.
func (c *Config) PrunePeriod() time.Duration {
	return time.Duration(c.Pool.PrunePeriod) * time.Second
}

// Countdown returns how long the pool runs; zero means unbounded.
func (c *Config) Countdown() time.Duration {
	return time.Duration(c.Pool.Countdown) * time.Second
}

// ListenAddress is the TCP address the collector binds to.
func (c *Config) ListenAddress() string {
	return net.JoinHostPort("0.0.0.0", strconv.Itoa(c.Server.Port))
}

// StoreAddress resolves storage.url to a host:port pair. Both "host:port"
// and "udp://host:port" are accepted.
func (c *Config) StoreAddress() (string, error) {
	raw := c.Storage.URL
	if u, err := url.Parse(raw); err == nil && u.Scheme != "" && u.Host != "" {
		if u.Scheme != "udp" {
			return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
		}
		raw = u.Host
	}
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return "", err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("invalid port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
// Validation is left to the caller so command-line flags can be applied first.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults. The port has no
// default and must be supplied.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Server.MaxMessageSizeBytes = 64 * 1024

	cfg.Storage.PayloadSize = 512

	cfg.Pool.PrunePeriod = 60
	cfg.Pool.Countdown = 0
	cfg.Pool.SweepInterval = time.Second
	cfg.Pool.AcceptBacklog = 128

	cfg.LocalSource.ConnectAttempts = 5

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.WebSocket.Enabled = false
	cfg.RateLimiting.WebSocket.ConnectionsPerMinute = 60
	cfg.RateLimiting.WebSocket.Burst = 20

	return cfg
}

func (c *Config) applyEnvOverrides() error {
	if port := os.Getenv("RILLSTATS_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("RILLSTATS_PORT: %w", err)
		}
		c.Server.Port = p
	}
	if u := os.Getenv("RILLSTATS_DATABASE_URL"); u != "" {
		c.Storage.URL = u
	}
	if ks := os.Getenv("RILLSTATS_TLS_KEYSTORE"); ks != "" {
		c.TLS.Keystore = ks
	}
	if pw := os.Getenv("RILLSTATS_TLS_PASSWORD"); pw != "" {
		c.TLS.Password = pw
	}
	if level := os.Getenv("RILLSTATS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}
