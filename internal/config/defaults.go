package config

import "github.com/thellimist/specmcp/internal/preset"

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Spec: SpecConfig{
			Path:            "",
			Validate:        false,
			MaxExampleDepth: 3,
		},
		Server: ServerConfig{
			Transport:       TransportStdio,
			Listen:          "127.0.0.1:8080",
			ShutdownTimeout: "10s",
		},
		Invoke: InvokeConfig{
			Timeout:          "30s",
			Burst:            1,
			MaxResponseBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "logfmt",
		},
		Presets: preset.Config{
			Mode: preset.ModeHidden,
		},
	}
}
