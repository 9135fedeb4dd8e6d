// Package config handles configuration for the authctl command: defaults,
// an optional JSON file and command-line flags.
package config

import "time"

// Config holds runtime settings for authctl.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - RequestTimeout: deadline applied to every call.
//   - SessionDir: directory, relative to the working directory, that keeps
//     the last token pair.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	SessionDir         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.SessionDir = ".authctl"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
