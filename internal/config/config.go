// Package config loads specmcp settings with priority
// defaults -> file -> SPECMCP_* environment -> command-line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/thellimist/specmcp/internal/preset"
	"github.com/thellimist/specmcp/internal/toolfilter"
)

// Transports accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config represents the application configuration.
type Config struct {
	Spec    SpecConfig    `toml:"spec"`
	Server  ServerConfig  `toml:"server"`
	Tools   ToolsConfig   `toml:"tools"`
	Invoke  InvokeConfig  `toml:"invoke"`
	Logging LoggingConfig `toml:"logging"`
	Presets preset.Config `toml:"presets"`
}

// SpecConfig locates the OpenAPI document and controls how it is compiled.
type SpecConfig struct {
	Path            string `toml:"path"`
	Validate        bool   `toml:"validate"`
	MaxExampleDepth int    `toml:"max_example_depth"`
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Name            string `toml:"name"` // empty: inferred from the document
	Transport       string `toml:"transport"`
	Listen          string `toml:"listen"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
}

// ToolsConfig selects which operations become tools.
type ToolsConfig struct {
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// InvokeConfig enables call_<name> tools. They are registered only when
// BaseURL is set.
type InvokeConfig struct {
	BaseURL          string  `toml:"base_url"`
	Timeout          string  `toml:"timeout"`
	RateLimit        float64 `toml:"rate_limit"`
	Burst            int     `toml:"burst"`
	MaxResponseBytes int64   `toml:"max_response_bytes"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Enabled reports whether upstream invocation is configured.
func (c InvokeConfig) Enabled() bool {
	return c.BaseURL != ""
}

// TimeoutDuration parses Timeout. Validate has already rejected bad values.
func (c InvokeConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// ShutdownDuration parses ShutdownTimeout.
func (c ServerConfig) ShutdownDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
// An empty path skips the file.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies SPECMCP_* environment variable overrides to config.
func applyEnvOverrides(config *Config) error {
	if v := os.Getenv("SPECMCP_SPEC"); v != "" {
		config.Spec.Path = v
	}
	if v := os.Getenv("SPECMCP_VALIDATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SPECMCP_VALIDATE: %w", err)
		}
		config.Spec.Validate = b
	}
	if v := os.Getenv("SPECMCP_MAX_EXAMPLE_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SPECMCP_MAX_EXAMPLE_DEPTH: %w", err)
		}
		config.Spec.MaxExampleDepth = n
	}
	if v := os.Getenv("SPECMCP_SERVER_NAME"); v != "" {
		config.Server.Name = v
	}
	if v := os.Getenv("SPECMCP_TRANSPORT"); v != "" {
		config.Server.Transport = v
	}
	if v := os.Getenv("SPECMCP_LISTEN"); v != "" {
		config.Server.Listen = v
	}
	if v := os.Getenv("SPECMCP_INCLUDE_TOOLS"); v != "" {
		config.Tools.Include = toolfilter.ParseToolList(v)
	}
	if v := os.Getenv("SPECMCP_EXCLUDE_TOOLS"); v != "" {
		config.Tools.Exclude = toolfilter.ParseToolList(v)
	}
	if v := os.Getenv("SPECMCP_BASE_URL"); v != "" {
		config.Invoke.BaseURL = v
	}
	if v := os.Getenv("SPECMCP_INVOKE_TIMEOUT"); v != "" {
		config.Invoke.Timeout = v
	}
	if v := os.Getenv("SPECMCP_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
	if v := os.Getenv("SPECMCP_LOG_FORMAT"); v != "" {
		config.Logging.Format = v
	}
	return nil
}

// Overrides holds command-line values. Zero values and nil pointers leave the
// configuration unchanged.
type Overrides struct {
	SpecPath        string
	Validate        *bool
	MaxExampleDepth *int
	ServerName      string
	Transport       string
	Listen          string
	Include         []string
	Exclude         []string
	BaseURL         string
	InvokeTimeout   string
	LogLevel        string
	LogFormat       string
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, o Overrides) {
	if o.SpecPath != "" {
		config.Spec.Path = o.SpecPath
	}
	if o.Validate != nil {
		config.Spec.Validate = *o.Validate
	}
	if o.MaxExampleDepth != nil {
		config.Spec.MaxExampleDepth = *o.MaxExampleDepth
	}
	if o.ServerName != "" {
		config.Server.Name = o.ServerName
	}
	if o.Transport != "" {
		config.Server.Transport = o.Transport
	}
	if o.Listen != "" {
		config.Server.Listen = o.Listen
	}
	// Include and exclude are exclusive; a flag for one clears the other.
	if len(o.Include) > 0 {
		config.Tools.Include = o.Include
		config.Tools.Exclude = nil
	}
	if len(o.Exclude) > 0 {
		config.Tools.Exclude = o.Exclude
		config.Tools.Include = nil
	}
	if o.BaseURL != "" {
		config.Invoke.BaseURL = o.BaseURL
	}
	if o.InvokeTimeout != "" {
		config.Invoke.Timeout = o.InvokeTimeout
	}
	if o.LogLevel != "" {
		config.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		config.Logging.Format = o.LogFormat
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Spec.Path == "" {
		return fmt.Errorf("spec path is required (--spec, SPECMCP_SPEC or [spec].path)")
	}
	if c.Spec.MaxExampleDepth < 0 {
		return fmt.Errorf("max_example_depth must not be negative, got %d", c.Spec.MaxExampleDepth)
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (must be %q or %q)", c.Server.Transport, TransportStdio, TransportHTTP)
	}
	if c.Server.Transport == TransportHTTP && c.Server.Listen == "" {
		return fmt.Errorf("listen address is required for the http transport")
	}
	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid shutdown_timeout %q", c.Server.ShutdownTimeout)
	}

	if len(c.Tools.Include) > 0 && len(c.Tools.Exclude) > 0 {
		return fmt.Errorf("--include-tools and --exclude-tools cannot be used together")
	}

	if d, err := time.ParseDuration(c.Invoke.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid invoke timeout %q", c.Invoke.Timeout)
	}
	if c.Invoke.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.Invoke.RateLimit)
	}

	switch c.Logging.Format {
	case "logfmt", "json":
	default:
		return fmt.Errorf("unknown log format %q (must be logfmt or json)", c.Logging.Format)
	}

	return c.Presets.Validate()
}
