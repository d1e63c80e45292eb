// Package tool compiles loaded operations into MCP tools and registers them
// on an mcp-go server.
package tool

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/thellimist/specmcp/internal/example"
	"github.com/thellimist/specmcp/internal/oas"
)

// Options controls how operations are compiled.
type Options struct {
	MaxExampleDepth int // <= 0 means example.DefaultMaxDepth
}

// Tool is one exposed operation. It is immutable after Compile returns.
type Tool struct {
	Name        string
	Description string
	Operation   oas.Operation

	maxDepth int
}

// Compile builds one Tool per operation, in operation order.
//
// Two operations may resolve to the same name (a duplicated operationId, or
// two paths whose fallback names match). The later definition replaces the
// earlier one but keeps its position, and a warning names both operations.
func Compile(ops []oas.Operation, opts Options, logger *slog.Logger) []Tool {
	if logger == nil {
		logger = slog.Default()
	}
	depth := opts.MaxExampleDepth
	if depth <= 0 {
		depth = example.DefaultMaxDepth
	}

	tools := make([]Tool, 0, len(ops))
	slot := make(map[string]int, len(ops))
	for _, op := range ops {
		t := Tool{
			Name:        op.Name,
			Description: describeText(op),
			Operation:   op,
			maxDepth:    depth,
		}
		if i, dup := slot[t.Name]; dup {
			logger.Warn("duplicate tool name, last definition wins",
				"tool", t.Name,
				"previous", tools[i].Operation.Label(),
				"replacement", op.Label())
			tools[i] = t
			continue
		}
		slot[t.Name] = len(tools)
		tools = append(tools, t)
	}
	return tools
}

func describeText(op oas.Operation) string {
	if s := strings.TrimSpace(op.Summary); s != "" {
		return s
	}
	if s := strings.TrimSpace(op.Description); s != "" {
		return s
	}
	return fmt.Sprintf("Parameters and examples for %s %s", op.Method, op.Path)
}
