package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables that override values from the config file
const (
	EnvAPIBaseURL     = "CYPHERCHAT_API_BASE_URL"
	EnvPushURL        = "CYPHERCHAT_PUSH_URL"
	EnvLogLevel       = "CYPHERCHAT_LOG_LEVEL"
	EnvExportDir      = "CYPHERCHAT_EXPORT_DIR"
	EnvRequestTimeout = "CYPHERCHAT_REQUEST_TIMEOUT"
)

const (
	DefaultAPIBaseURL     = "http://localhost:5000"
	DefaultPushURL        = "ws://localhost:5000/ws"
	DefaultReconnectDelay = 5 * time.Second
)

// APIConfig represents the backend HTTP API settings
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout of zero means requests wait for the backend indefinitely
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// PushConfig represents the metrics push channel settings
type PushConfig struct {
	URL            string        `yaml:"url"`
	Enabled        bool          `yaml:"enabled"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// LogConfig represents the logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// ExportConfig represents where exported chat history is written
type ExportConfig struct {
	Directory string `yaml:"directory,omitempty"`
}

// Config represents the main configuration
type Config struct {
	API    APIConfig    `yaml:"api"`
	Push   PushConfig   `yaml:"push"`
	Log    LogConfig    `yaml:"log"`
	Export ExportConfig `yaml:"export"`
}

// Default returns the configuration used when no config file exists yet
func (c Config) Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
		},
		Push: PushConfig{
			URL:            DefaultPushURL,
			Enabled:        true,
			ReconnectDelay: DefaultReconnectDelay,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configured endpoints are usable
func (c Config) Validate() error {
	if _, err := parseURL(c.API.BaseURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid api.base_url: %w", err)
	}
	if c.Push.Enabled {
		if _, err := parseURL(c.Push.URL, "ws", "wss"); err != nil {
			return fmt.Errorf("invalid push.url: %w", err)
		}
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	return nil
}

// ValidateURL checks that raw is an absolute URL using one of schemes
func ValidateURL(raw string, schemes ...string) error {
	_, err := parseURL(raw, schemes...)
	return err
}

func parseURL(raw string, schemes ...string) (*url.URL, error) {
	if raw == "" {
		return nil, errors.New("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if u.Host == "" {
				return nil, fmt.Errorf("url %q has no host", raw)
			}
			return u, nil
		}
	}
	return nil, fmt.Errorf("url %q must use one of %v", raw, schemes)
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values from environment variables resolved by lookup.
// Pass os.LookupEnv for the process environment.
func (c Config) ApplyEnv(lookup func(string) (string, bool)) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(EnvAPIBaseURL); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup(EnvPushURL); ok && v != "" {
		c.Push.URL = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvExportDir); ok && v != "" {
		c.Export.Directory = v
	}
	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		c.API.Timeout = d
	}

	return c, nil
}

// ParseDuration accepts Go durations ("30s") and bare seconds ("30")
func ParseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}
