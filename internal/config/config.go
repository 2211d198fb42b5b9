// ABOUTME: Configuration loading and parsing for caskd
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete caskd configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	CORS     CORSConfig     `yaml:"cors"`
	WebDAV   WebDAVConfig   `yaml:"webdav"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// StorageConfig holds the file tree served over WebDAV
type StorageConfig struct {
	Root string `yaml:"root"`
}

// AuthConfig holds authentication configuration.
//
// SessionSecret signs API bearer tokens (HS256, minimum 32 bytes).
// CLISecret is the shared secret for the companion CLI; when empty,
// CLI routes reject every request with a not-configured diagnostic.
type AuthConfig struct {
	SessionSecret string `yaml:"session_secret"`
	CLISecret     string `yaml:"cli_secret"`

	SessionSweepInterval time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	SessionSweepIntervalRaw string `yaml:"session_sweep_interval"`
}

// CORSConfig holds the cross-origin allow-list.
// Origins are matched exactly; an empty list rejects every cross-origin request.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebDAVConfig holds WebDAV mount configuration
type WebDAVConfig struct {
	Enabled bool   `yaml:"enabled"`
	Prefix  string `yaml:"prefix"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultSessionSweepInterval is used when auth.session_sweep_interval is not configured.
const DefaultSessionSweepInterval = time.Hour

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	applyDefaults(&cfg)

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if len(c.Auth.SessionSecret) < 32 {
		return fmt.Errorf("auth.session_secret must be at least 32 bytes")
	}

	if c.WebDAV.Enabled && c.Storage.Root == "" {
		return fmt.Errorf("storage.root is required when webdav is enabled")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.SessionSweepIntervalRaw != "" {
		cfg.Auth.SessionSweepInterval, err = time.ParseDuration(cfg.Auth.SessionSweepIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing session_sweep_interval %q: %w", cfg.Auth.SessionSweepIntervalRaw, err)
		}
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Auth.SessionSweepInterval == 0 {
		cfg.Auth.SessionSweepInterval = DefaultSessionSweepInterval
	}
	if cfg.WebDAV.Prefix == "" {
		cfg.WebDAV.Prefix = "/dav/"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
