// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIBaseURL is the backend REST root used during local development.
	DefaultAPIBaseURL = "http://127.0.0.1:8000/api"
	// DefaultPollInterval is how often the unread notification count is refreshed.
	DefaultPollInterval = 30 * time.Second
	// DefaultHTTPTimeout bounds a single backend request.
	DefaultHTTPTimeout = 60 * time.Second
	// DefaultListenAddr is where the local browser gateway listens.
	DefaultListenAddr = "127.0.0.1:5173"
)

// Duration is a time.Duration that reads and writes as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("duration must be a string or number of seconds")
	}
	*d = Duration(time.Duration(seconds * float64(time.Second)))
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config represents the client configuration.
// Values come from defaults, then environment, then an optional JSON file, then CLI flags.
type Config struct {
	// Backend
	APIBaseURL  string   `json:"api_base_url,omitempty"` // REST root, e.g. http://127.0.0.1:8000/api
	HTTPTimeout Duration `json:"http_timeout,omitempty"` // Per-request timeout

	// Local state
	StateDir   string `json:"state_dir,omitempty"`   // Directory holding the auth and profile records
	SessionKey string `json:"session_key,omitempty"` // Optional passphrase sealing stored records

	// Views
	PollInterval          Duration `json:"poll_interval,omitempty"`          // Unread notification refresh interval
	ListenAddr            string   `json:"listen_addr,omitempty"`            // Gateway listen address
	RedirectAuthenticated bool     `json:"redirect_authenticated,omitempty"` // Send logged-in users away from login routes
	AllowedOrigins        []string `json:"allowed_origins,omitempty"`        // Extra web origins the gateway answers

	// Behavior
	LogLevel string `json:"log_level,omitempty"` // debug, info, warn, error
	Verbose  bool   `json:"verbose,omitempty"`   // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:   DefaultAPIBaseURL,
		HTTPTimeout:  Duration(DefaultHTTPTimeout),
		StateDir:     DefaultStateDir(),
		PollInterval: Duration(DefaultPollInterval),
		ListenAddr:   DefaultListenAddr,
		LogLevel:     "info",
	}
}

// DefaultStateDir returns the per-user configuration directory for jobboard.
func DefaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".jobboard")
	}
	return filepath.Join(dir, "jobboard")
}

// FromEnv reads JOBBOARD_* environment variables. Unset variables leave fields empty.
func FromEnv() (Config, error) {
	cfg := Config{
		APIBaseURL: os.Getenv("JOBBOARD_API_URL"),
		StateDir:   os.Getenv("JOBBOARD_STATE_DIR"),
		SessionKey: os.Getenv("JOBBOARD_SESSION_KEY"),
		ListenAddr: os.Getenv("JOBBOARD_LISTEN_ADDR"),
		LogLevel:   os.Getenv("JOBBOARD_LOG_LEVEL"),
	}

	if v := os.Getenv("JOBBOARD_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JOBBOARD_POLL_INTERVAL: %v", err)
		}
		cfg.PollInterval = Duration(d)
	}

	if v := os.Getenv("JOBBOARD_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JOBBOARD_HTTP_TIMEOUT: %v", err)
		}
		cfg.HTTPTimeout = Duration(d)
	}

	if v := os.Getenv("JOBBOARD_ALLOWED_ORIGINS"); v != "" {
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if v := os.Getenv("JOBBOARD_REDIRECT_AUTHENTICATED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid JOBBOARD_REDIRECT_AUTHENTICATED: %v", err)
		}
		cfg.RedirectAuthenticated = b
	}

	return cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load resolves the effective configuration: the optional file at path over
// the environment over the built-in defaults.
func Load(path string) (*Config, error) {
	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := env.MergeWithDefaults(Defaults())

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged = fileCfg.MergeWithDefaults(merged)
		merged.RedirectAuthenticated = fileCfg.RedirectAuthenticated || env.RedirectAuthenticated
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.APIBaseURL != "" {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'api_base_url' must be an absolute URL, got %q", c.APIBaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("config error: 'api_base_url' must use http or https, got %q", u.Scheme)
		}
	}

	if c.PollInterval != 0 && time.Duration(c.PollInterval) < time.Second {
		return fmt.Errorf("config error: 'poll_interval' must be at least 1s")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("config error: 'http_timeout' must be non-negative")
	}

	for _, o := range c.AllowedOrigins {
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || (u.Path != "" && u.Path != "/") {
			return fmt.Errorf("config error: 'allowed_origins' entries must look like http://host[:port], got %q", o)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level' %q", c.LogLevel)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIBaseURL == "" {
		result.APIBaseURL = defaults.APIBaseURL
	}
	if result.StateDir == "" {
		result.StateDir = defaults.StateDir
	}
	if result.SessionKey == "" {
		result.SessionKey = defaults.SessionKey
	}
	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.PollInterval == 0 {
		result.PollInterval = defaults.PollInterval
	}
	if result.HTTPTimeout == 0 {
		result.HTTPTimeout = defaults.HTTPTimeout
	}
	if len(result.AllowedOrigins) == 0 {
		result.AllowedOrigins = defaults.AllowedOrigins
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// APIRoot returns the backend base URL without a trailing slash.
func (c *Config) APIRoot() string {
	return strings.TrimRight(c.APIBaseURL, "/")
}
