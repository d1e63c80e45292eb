// Package preset injects configured parameter values into call tool
// invocations.
package preset

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Mode controls how preset params are exposed to callers.
type Mode string

const (
	ModeHidden  Mode = "hidden"  // Removed from the call tool's input schema and always injected.
	ModeDefault Mode = "default" // Left in the schema; injected only when the caller omits them.
)

// ToolConfig holds per-tool parameter presets.
type ToolConfig struct {
	Params map[string]any `toml:"params" json:"params"`
}

// GlobalConfig holds parameter presets applied to every tool.
type GlobalConfig struct {
	Params map[string]any `toml:"params" json:"params"`
}

// Config is the top-level preset configuration.
type Config struct {
	Mode   Mode                  `toml:"mode" json:"mode"`
	Global GlobalConfig          `toml:"global" json:"global"`
	Tools  map[string]ToolConfig `toml:"tools" json:"tools"`
}

// Validate defaults an empty mode to hidden and rejects unknown modes and
// empty param names.
func (c *Config) Validate() error {
	if c.Mode == "" {
		c.Mode = ModeHidden
	}

	switch c.Mode {
	case ModeHidden, ModeDefault:
	default:
		return fmt.Errorf("preset: unknown mode %q (must be %q or %q)", c.Mode, ModeHidden, ModeDefault)
	}

	for name := range c.Global.Params {
		if name == "" {
			return fmt.Errorf("preset: global params contain an empty param name")
		}
	}

	for tool, tc := range c.Tools {
		for name := range tc.Params {
			if name == "" {
				return fmt.Errorf("preset: tool %q params contain an empty param name", tool)
			}
		}
	}

	return nil
}

// Empty reports whether no params are configured.
func (c *Config) Empty() bool {
	if c == nil {
		return true
	}
	if len(c.Global.Params) > 0 {
		return false
	}
	for _, tc := range c.Tools {
		if len(tc.Params) > 0 {
			return false
		}
	}
	return true
}

// Merge returns the merged params for a given tool.
// Global params are applied first, then tool-specific params override on conflict.
func (c *Config) Merge(toolName string) map[string]any {
	if c == nil {
		return map[string]any{}
	}
	merged := make(map[string]any, len(c.Global.Params))
	maps.Copy(merged, c.Global.Params)
	if tc, ok := c.Tools[toolName]; ok {
		maps.Copy(merged, tc.Params)
	}
	return merged
}

// ParamNames returns all preset param names for a tool (global + tool-specific),
// sorted alphabetically.
func (c *Config) ParamNames(toolName string) []string {
	names := slices.Collect(maps.Keys(c.Merge(toolName)))
	slices.Sort(names)
	return names
}

// mode returns the effective mode; an unset mode means hidden.
func (c *Config) mode() Mode {
	if c.Mode == "" {
		return ModeHidden
	}
	return c.Mode
}

// Hidden returns the param names that must not appear in a tool's input
// schema. It is empty in default mode.
func (c *Config) Hidden(toolName string) []string {
	if c == nil || c.mode() != ModeHidden {
		return nil
	}
	return c.ParamNames(toolName)
}

// Apply returns args with the tool's presets injected. In hidden mode a
// preset replaces any caller value; in default mode the caller's value is
// kept. args is not modified.
func (c *Config) Apply(toolName string, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	maps.Copy(out, args)
	if c == nil {
		return out
	}
	for k, v := range c.Merge(toolName) {
		if _, given := out[k]; given && c.mode() == ModeDefault {
			continue
		}
		out[k] = v
	}
	return out
}

// parseValue attempts to parse a string as JSON. If parsing fails, the raw
// string is returned. This allows --preset labels='["a","b"]' to produce a
// []any while --preset org=acme stays a plain string.
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// ParseSetEntries parses --preset key=value entries into a param map.
// Each entry is split on the first '='.
func ParseSetEntries(entries []string) (map[string]any, error) {
	params := make(map[string]any, len(entries))
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("preset: invalid --preset %q: expected key=value", entry)
		}
		if key == "" {
			return nil, fmt.Errorf("preset: invalid --preset %q: empty key", entry)
		}
		params[key] = parseValue(value)
	}
	return params, nil
}

// ParseSetToolEntries parses --preset-tool toolname.key=value entries into a
// per-tool param map. Each entry is split on the first '.' for the tool name,
// then the first '=' for key/value.
func ParseSetToolEntries(entries []string) (map[string]map[string]any, error) {
	tools := make(map[string]map[string]any)
	for _, entry := range entries {
		toolName, rest, ok := strings.Cut(entry, ".")
		if !ok {
			return nil, fmt.Errorf("preset: invalid --preset-tool %q: expected toolname.key=value", entry)
		}
		if toolName == "" {
			return nil, fmt.Errorf("preset: invalid --preset-tool %q: empty tool name", entry)
		}
		key, value, ok := strings.Cut(rest, "=")
		if !ok {
			return nil, fmt.Errorf("preset: invalid --preset-tool %q: expected toolname.key=value", entry)
		}
		if key == "" {
			return nil, fmt.Errorf("preset: invalid --preset-tool %q: empty key", entry)
		}
		if tools[toolName] == nil {
			tools[toolName] = make(map[string]any)
		}
		tools[toolName][key] = parseValue(value)
	}
	return tools, nil
}

// MergeOverrides merges --preset / --preset-tool / --preset-mode overrides
// into cfg, which may be nil. Flag values override file values. The returned
// Config is always non-nil and cfg is left untouched.
func MergeOverrides(cfg *Config, globalSets []string, toolSets []string, modeOverride string) (*Config, error) {
	var merged Config
	if cfg != nil {
		merged.Mode = cfg.Mode
		merged.Global.Params = maps.Clone(cfg.Global.Params)
		merged.Tools = copyTools(cfg.Tools)
	}

	if merged.Mode == "" {
		merged.Mode = ModeHidden
	}

	globalParams, err := ParseSetEntries(globalSets)
	if err != nil {
		return nil, err
	}
	if merged.Global.Params == nil {
		merged.Global.Params = make(map[string]any)
	}
	maps.Copy(merged.Global.Params, globalParams)

	toolParams, err := ParseSetToolEntries(toolSets)
	if err != nil {
		return nil, err
	}
	if merged.Tools == nil {
		merged.Tools = make(map[string]ToolConfig)
	}
	for toolName, params := range toolParams {
		tc := merged.Tools[toolName]
		if tc.Params == nil {
			tc.Params = make(map[string]any)
		}
		maps.Copy(tc.Params, params)
		merged.Tools[toolName] = tc
	}

	if modeOverride != "" {
		m := Mode(modeOverride)
		switch m {
		case ModeHidden, ModeDefault:
			merged.Mode = m
		default:
			return nil, fmt.Errorf("preset: unknown --preset-mode %q (must be %q or %q)", modeOverride, ModeHidden, ModeDefault)
		}
	}

	return &merged, nil
}

func copyTools(src map[string]ToolConfig) map[string]ToolConfig {
	if src == nil {
		return nil
	}
	dst := make(map[string]ToolConfig, len(src))
	for name, tc := range src {
		dst[name] = ToolConfig{Params: maps.Clone(tc.Params)}
	}
	return dst
}
