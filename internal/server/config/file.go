package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/videotube/internal/flagx"
	"github.com/dmitrijs2005/videotube/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Interval fields use
// timex.Duration, so both "15m" / "10d" strings and bare numbers of seconds
// are accepted, the same as in the environment and on the command line. Only the fields present in the file override the current values.
type FileConfig struct {
	HTTPAddr                     string          `json:"http_addr" yaml:"http_addr"`
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn" yaml:"database_dsn"`
	MongoDatabase                string          `json:"mongo_database" yaml:"mongo_database"`
	AccessTokenSecret            string          `json:"access_token_secret" yaml:"access_token_secret"`
	RefreshTokenSecret           string          `json:"refresh_token_secret" yaml:"refresh_token_secret"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	PasswordHashAlgorithm        string          `json:"password_hash_algorithm" yaml:"password_hash_algorithm"`
	RedisAddr                    string          `json:"redis_addr" yaml:"redis_addr"`
	LoginRateLimit               *int            `json:"login_rate_limit" yaml:"login_rate_limit"`
	LoginRateWindow              *timex.Duration `json:"login_rate_window" yaml:"login_rate_window"`
	BreakerMaxFailures           *uint32         `json:"breaker_max_failures" yaml:"breaker_max_failures"`
	BreakerOpenTimeout           *timex.Duration `json:"breaker_open_timeout" yaml:"breaker_open_timeout"`
	CookieSecure                 *bool           `json:"cookie_secure" yaml:"cookie_secure"`
	CookieDomain                 string          `json:"cookie_domain" yaml:"cookie_domain"`
	CookieSameSite               string          `json:"cookie_same_site" yaml:"cookie_same_site"`
	LogFormat                    string          `json:"log_format" yaml:"log_format"`
	LogLevel                     string          `json:"log_level" yaml:"log_level"`
	ShutdownTimeout              *timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile loads the file named by -c / -config, if any. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON. An unreadable or
// malformed file panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.AccessTokenSecret, c.AccessTokenSecret)
	setString(&config.RefreshTokenSecret, c.RefreshTokenSecret)
	setString(&config.PasswordHashAlgorithm, c.PasswordHashAlgorithm)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.CookieDomain, c.CookieDomain)
	setString(&config.CookieSameSite, c.CookieSameSite)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
	if c.LoginRateWindow != nil {
		config.LoginRateWindow = c.LoginRateWindow.Duration
	}
	if c.BreakerMaxFailures != nil {
		config.BreakerMaxFailures = *c.BreakerMaxFailures
	}
	if c.BreakerOpenTimeout != nil {
		config.BreakerOpenTimeout = c.BreakerOpenTimeout.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}
