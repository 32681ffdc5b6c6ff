// Package config provides configuration management for the Strava auth proxy.
// It handles loading an optional YAML configuration file for server settings
// and binding the Strava OAuth credentials from environment variables. The
// resulting Config is immutable after startup and passed explicitly into each
// component constructor.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultRedirectURI is used when EXPECTED_REDIRECT_URI is not configured.
const DefaultRedirectURI = "http://localhost:3000/exchange_token"

// DefaultScopes is the scope string requested when the caller supplies none.
// Order matters to Strava's consent screen and is preserved verbatim.
const DefaultScopes = "read,activity:read_all,profile:read_all"

// Credentials holds the Strava OAuth application credentials. They are bound
// from environment variables and never serialized back out; the json:"-" tags
// keep the secret out of any accidental marshalling of the config.
type Credentials struct {
	// ClientID is the Strava OAuth application client ID.
	ClientID string `env:"STRAVA_CLIENT_ID" json:"-" yaml:"-"`

	// ClientSecret is the Strava OAuth application client secret. It is only
	// ever sent to Strava's token endpoint and never appears in responses,
	// logs, or debug output.
	ClientSecret string `env:"STRAVA_CLIENT_SECRET" json:"-" yaml:"-"`

	// RedirectURI is the default OAuth redirect URI used when the caller does
	// not supply one.
	RedirectURI string `env:"EXPECTED_REDIRECT_URI" json:"-" yaml:"-"`
}

// Config represents the application's configuration, loaded from an optional
// YAML file with credentials overlaid from the environment.
type Config struct {
	// Port is the TCP port the API server listens on.
	Port int `yaml:"port" json:"port"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile switches log output from stdout to rotating files.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// RequestLog enables per-request body logging at debug level.
	RequestLog bool `yaml:"request-log" json:"request-log"`

	// ProxyURL is the URL of an optional proxy server (http, https or socks5)
	// to use for outbound requests to Strava.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// RequestTimeoutSeconds bounds every outbound call to Strava. A call that
	// exceeds it fails as an upstream-unavailable error; there is no retry.
	RequestTimeoutSeconds int `yaml:"request-timeout-seconds" json:"request-timeout-seconds"`

	// Credentials are bound from the environment, not the YAML file.
	Credentials Credentials `yaml:"-" json:"-"`
}

// RequestTimeout returns the bounded timeout applied to every outbound call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// applyDefaults fills zero values with working defaults.
func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8317
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 10
	}
	if strings.TrimSpace(c.Credentials.RedirectURI) == "" {
		c.Credentials.RedirectURI = DefaultRedirectURI
	}
}

// Validate checks that the configuration can support the OAuth flows.
// Missing Strava credentials are fatal at startup.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Credentials.ClientID) == "" {
		return fmt.Errorf("config: STRAVA_CLIENT_ID is not set")
	}
	if strings.TrimSpace(c.Credentials.ClientSecret) == "" {
		return fmt.Errorf("config: STRAVA_CLIENT_SECRET is not set")
	}
	return nil
}

// LoadConfig reads the YAML configuration file at configFile and overlays the
// Strava credentials from the environment. A missing file is not an error;
// server settings then come entirely from defaults.
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err == nil {
			if errUnmarshal := yaml.Unmarshal(data, cfg); errUnmarshal != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", configFile, errUnmarshal)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to read %s: %w", configFile, err)
		}
	}

	if err := env.Parse(&cfg.Credentials); err != nil {
		return nil, fmt.Errorf("config: failed to bind credentials from environment: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}
