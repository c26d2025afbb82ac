// Package config provides YAML and TOML configuration parsing for FaultBoard.
//
// This package enables running FaultBoard as a standalone binary in front of
// an existing web application, as an alternative to the programmatic SDK
// approach.
//
// Example configuration:
//
//	title: Orders
//	port: 8080
//	log_level: info
//
//	upstream:
//	  url: http://localhost:3000
//	  ready_path: /healthz
//	  ready_timeout: 30s
//	  headers:
//	    Authorization: Bearer ${DEV_TOKEN}
//
//	reports:
//	  rate: 20
//	  burst: 40
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultReadyPath    = "/"
	defaultReadyTimeout = 30 * time.Second
	defaultReportRate   = 20
	defaultReportBurst  = 40
	defaultAsync        = 10
)

// Config is the root configuration structure for FaultBoard.
//
// It maps directly to the configuration file structure.
// Use [Load], [Parse] or [ParseTOML] to create a Config.
type Config struct {
	// Title is the title of pages FaultBoard renders itself.
	// Defaults to "FaultBoard" if not set.
	Title string `yaml:"title" toml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port" toml:"port"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// AsyncConcurrency bounds concurrent async tasks. Defaults to 10.
	AsyncConcurrency int `yaml:"async_concurrency" toml:"async_concurrency"`

	// Upstream is the application FaultBoard fronts.
	Upstream UpstreamConfig `yaml:"upstream" toml:"upstream"`

	// Reports limits browser failure reports.
	Reports ReportsConfig `yaml:"reports" toml:"reports"`
}

// UpstreamConfig defines the proxied application.
type UpstreamConfig struct {
	// URL is the base URL of the application.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url" toml:"url"`

	// Headers are set on every proxied request and readiness probe.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers" toml:"headers"`

	// ReadyPath is probed until the application answers. Defaults to "/".
	ReadyPath string `yaml:"ready_path" toml:"ready_path"`

	// ReadyTimeout bounds the wait for the application. Defaults to 30s.
	ReadyTimeout Duration `yaml:"ready_timeout" toml:"ready_timeout"`
}

// ReportsConfig limits browser failure reports.
type ReportsConfig struct {
	// Rate is the accepted reports per second. Defaults to 20.
	Rate float64 `yaml:"rate" toml:"rate"`

	// Burst is the short-term allowance above Rate. Defaults to 40.
	Burst int `yaml:"burst" toml:"burst"`
}

// Duration wraps time.Duration for YAML and TOML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText implements encoding.TextUnmarshaler, used by TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// ReadyURL returns the URL probed for readiness.
func (u UpstreamConfig) ReadyURL() string {
	return strings.TrimSuffix(u.URL, "/") + "/" + strings.TrimPrefix(u.ReadyPath, "/")
}

// SlogLevel returns LogLevel as a [slog.Level].
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a configuration file.
//
// Files ending in ".toml" are parsed as TOML, everything else as YAML.
// Environment variables are expanded after parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the upstream URL and header values.
// Defaults are applied for every unset field.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return finish(&cfg)
}

// ParseTOML parses TOML configuration data. See [Parse].
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return finish(&cfg)
}

// finish applies defaults, then expands and validates.
func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.AsyncConcurrency == 0 {
		c.AsyncConcurrency = defaultAsync
	}
	if c.Upstream.ReadyPath == "" {
		c.Upstream.ReadyPath = defaultReadyPath
	}
	if c.Upstream.ReadyTimeout == 0 {
		c.Upstream.ReadyTimeout = Duration(defaultReadyTimeout)
	}
	if c.Reports.Rate == 0 {
		c.Reports.Rate = defaultReportRate
	}
	if c.Reports.Burst == 0 {
		c.Reports.Burst = defaultReportBurst
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.AsyncConcurrency < 0 {
		return fmt.Errorf("async_concurrency must be positive, got %d", c.AsyncConcurrency)
	}

	if c.Reports.Rate < 0 {
		return fmt.Errorf("reports.rate must be positive, got %v", c.Reports.Rate)
	}
	if c.Reports.Burst < 0 {
		return fmt.Errorf("reports.burst must be positive, got %d", c.Reports.Burst)
	}

	up := &c.Upstream
	if up.URL == "" {
		return errors.New("upstream.url is required")
	}
	expanded, err := expandEnvVars(up.URL)
	if err != nil {
		return fmt.Errorf("upstream.url: %w", err)
	}
	up.URL = expanded

	parsedURL, err := url.Parse(up.URL)
	if err != nil {
		return fmt.Errorf("upstream.url: invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("upstream.url: scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("upstream.url: host is required")
	}

	for k, v := range up.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("upstream.headers[%s]: %w", k, err)
		}
		up.Headers[k] = expanded
	}

	if up.ReadyTimeout.Duration() < 0 {
		return fmt.Errorf("upstream.ready_timeout cannot be negative, got %s", up.ReadyTimeout.Duration())
	}

	return nil
}
