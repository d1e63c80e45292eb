// Package toolfilter narrows the compiled tool set by name.
package toolfilter

import (
	"fmt"
	"strings"

	"github.com/thellimist/specmcp/internal/tool"
)

// ParseToolList splits a comma-separated string into a deduplicated, trimmed
// list of tool names. Empty entries are removed and order is preserved (first
// occurrence wins on duplicates).
func ParseToolList(csv string) []string {
	if csv == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var result []string
	for _, p := range strings.Split(csv, ",") {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		result = append(result, name)
	}
	return result
}

// FilterTools applies include or exclude filtering to compiled tools.
//
// Include keeps the named tools in document order; a name that matches no
// tool is an error carrying a suggestion when one is close. Exclude drops the
// named tools and fails when nothing is left. Unknown exclude names are
// ignored. Include and exclude together is an error.
func FilterTools(tools []tool.Tool, include, exclude []string) ([]tool.Tool, error) {
	if len(include) > 0 && len(exclude) > 0 {
		return nil, fmt.Errorf("--include-tools and --exclude-tools cannot be used together")
	}
	if len(include) == 0 && len(exclude) == 0 {
		return tools, nil
	}

	if len(include) > 0 {
		available := make([]string, 0, len(tools))
		known := make(map[string]struct{}, len(tools))
		for _, t := range tools {
			available = append(available, t.Name)
			known[t.Name] = struct{}{}
		}

		want := make(map[string]struct{}, len(include))
		for _, name := range include {
			if _, ok := known[name]; !ok {
				msg := fmt.Sprintf("tool '%s' not found in the document. Available tools: %s",
					name, strings.Join(available, ", "))
				if suggestion := SuggestTool(name, available); suggestion != "" {
					msg += fmt.Sprintf(" Did you mean '%s'?", suggestion)
				}
				return nil, fmt.Errorf("%s", msg)
			}
			want[name] = struct{}{}
		}
		return keep(tools, func(name string) bool {
			_, ok := want[name]
			return ok
		}), nil
	}

	drop := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		drop[name] = struct{}{}
	}
	result := keep(tools, func(name string) bool {
		_, ok := drop[name]
		return !ok
	})
	if len(result) == 0 {
		return nil, fmt.Errorf("all tools excluded, nothing to serve")
	}
	return result, nil
}

func keep(tools []tool.Tool, pred func(name string) bool) []tool.Tool {
	var result []tool.Tool
	for _, t := range tools {
		if pred(t.Name) {
			result = append(result, t)
		}
	}
	return result
}
