// Package config handles configuration for the server component,
// including defaults, a JSON or YAML file overlay, environment variables
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds runtime settings for the videotube auth server.
//
// Fields:
//   - HTTPAddr / EndpointAddrGRPC: bind addresses of the HTTP and gRPC endpoints.
//   - DatabaseDSN: store location; the scheme selects the backend
//     (postgres://, mongodb://, memory://).
//   - AccessTokenSecret / RefreshTokenSecret: HMAC secrets (HS256), must differ.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - LoginRateLimit: login attempts allowed per LoginRateWindow and client; 0 disables throttling.
type Config struct {
	HTTPAddr                     string
	EndpointAddrGRPC             string
	DatabaseDSN                  string
	MongoDatabase                string
	AccessTokenSecret            string
	RefreshTokenSecret           string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	PasswordHashAlgorithm        string
	RedisAddr                    string
	LoginRateLimit               int
	LoginRateWindow              time.Duration
	BreakerMaxFailures           uint32
	BreakerOpenTimeout           time.Duration
	CookieSecure                 bool
	CookieDomain                 string
	CookieSameSite               string
	LogFormat                    string
	LogLevel                     string
	ShutdownTimeout              time.Duration
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secrets are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "memory://"
	c.MongoDatabase = "videotube"
	c.AccessTokenSecret = "dev-access-token-secret"
	c.RefreshTokenSecret = "dev-refresh-token-secret"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 10 * 24 * time.Hour
	c.PasswordHashAlgorithm = "bcrypt"
	c.RedisAddr = ""
	c.LoginRateLimit = 10
	c.LoginRateWindow = time.Minute
	c.BreakerMaxFailures = 5
	c.BreakerOpenTimeout = 30 * time.Second
	c.CookieSecure = true
	c.CookieDomain = ""
	c.CookieSameSite = "lax"
	c.LogFormat = "json"
	c.LogLevel = "info"
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file, the environment (and .env) and finally
// command-line flags. Malformed input panics, as there is nothing sensible
// to start with.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg, ".env")
	parseFlags(cfg)
	return cfg
}

// Validate rejects settings the token manager cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("access token secret is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("refresh token secret is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token expiry must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token expiry must be positive"))
	}
	if c.AccessTokenValidityDuration > 0 && c.RefreshTokenValidityDuration <= c.AccessTokenValidityDuration {
		errs = append(errs, errors.New("refresh token must outlive access token"))
	}
	if c.LoginRateLimit < 0 {
		errs = append(errs, fmt.Errorf("login rate limit must not be negative, got %d", c.LoginRateLimit))
	}
	if c.LoginRateLimit > 0 && c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("login rate window must be positive"))
	}
	switch c.CookieSameSite {
	case "", "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown cookie same-site mode %q", c.CookieSameSite))
	}

	return errors.Join(errs...)
}
