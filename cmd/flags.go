package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thellimist/specmcp/internal/config"
	"github.com/thellimist/specmcp/internal/preset"
	"github.com/thellimist/specmcp/internal/toolfilter"
)

// documentFlags are shared by every command that loads a document.
type documentFlags struct {
	configPath      string
	spec            string
	validate        bool
	maxExampleDepth int
	includeTools    string
	excludeTools    string
	logLevel        string
	logFormat       string
}

func (d *documentFlags) register(f *pflag.FlagSet) {
	f.StringVar(&d.configPath, "config", "", "path to a TOML config file")
	f.StringVar(&d.spec, "spec", "", "path to the OpenAPI document (JSON, or YAML for .yaml/.yml)")
	f.BoolVar(&d.validate, "validate", false, "also run the document through a full OpenAPI validator and log findings")
	f.IntVar(&d.maxExampleDepth, "max-example-depth", 0, "nesting depth kept in simplified examples (default 3)")
	f.StringVar(&d.includeTools, "include-tools", "", "only expose these tools (comma-separated)")
	f.StringVar(&d.excludeTools, "exclude-tools", "", "do not expose these tools (comma-separated)")
	f.StringVar(&d.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&d.logFormat, "log-format", "", "log format: logfmt or json")
}

// overrides converts the flags the user actually set.
func (d *documentFlags) overrides(cmd *cobra.Command) config.Overrides {
	f := cmd.Flags()
	o := config.Overrides{
		SpecPath:  d.spec,
		Include:   toolfilter.ParseToolList(d.includeTools),
		Exclude:   toolfilter.ParseToolList(d.excludeTools),
		LogLevel:  d.logLevel,
		LogFormat: d.logFormat,
	}
	if f.Changed("validate") {
		o.Validate = &d.validate
	}
	if f.Changed("max-example-depth") {
		o.MaxExampleDepth = &d.maxExampleDepth
	}
	return o
}

// presetFlags set parameter presets for call tools.
type presetFlags struct {
	global []string
	tool   []string
	mode   string
}

func (p *presetFlags) register(f *pflag.FlagSet) {
	f.StringArrayVar(&p.global, "preset", nil, "preset a parameter for every call tool (key=value, repeatable)")
	f.StringArrayVar(&p.tool, "preset-tool", nil, "preset a parameter for one call tool (tool.key=value, repeatable)")
	f.StringVar(&p.mode, "preset-mode", "", "hidden (always injected, removed from schemas) or default (used when omitted)")
}

// loadConfig resolves the configuration with priority
// defaults -> file -> environment -> flags, then validates it.
func loadConfig(cmd *cobra.Command, d *documentFlags, p *presetFlags, extra func(*config.Overrides)) (*config.Config, error) {
	cfg, err := config.LoadFromFile(d.configPath)
	if err != nil {
		return nil, err
	}

	o := d.overrides(cmd)
	if extra != nil {
		extra(&o)
	}
	config.ApplyFlagOverrides(cfg, o)

	if p != nil {
		merged, err := preset.MergeOverrides(&cfg.Presets, p.global, p.tool, p.mode)
		if err != nil {
			return nil, err
		}
		cfg.Presets = *merged
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
