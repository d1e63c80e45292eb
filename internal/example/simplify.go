// Package example builds the trimmed request/response payloads shown to
// agents alongside an operation's fields.
package example

import "github.com/thellimist/specmcp/internal/oas"

// DefaultMaxDepth bounds how many container levels Simplify descends.
const DefaultMaxDepth = 3

// Placeholder replaces containers found at or below the depth limit.
const Placeholder = "..."

// Simplify collapses every non-empty array to a single representative
// element and keeps every object key. Scalars pass through unchanged.
// Containers reached at maxDepth are replaced by Placeholder, which bounds
// the output of deeply nested payloads.
func Simplify(v any, maxDepth int) any {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return simplify(v, 0, maxDepth)
}

func simplify(v any, depth, maxDepth int) any {
	switch t := v.(type) {
	case []any:
		if depth >= maxDepth {
			return Placeholder
		}
		if len(t) == 0 {
			return []any{}
		}
		return []any{simplify(t[0], depth+1, maxDepth)}

	case *oas.Object:
		if depth >= maxDepth {
			return Placeholder
		}
		out := oas.NewObject()
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out.Set(k, simplify(val, depth+1, maxDepth))
		}
		return out

	default:
		return v
	}
}
