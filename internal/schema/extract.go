package schema

import (
	"encoding/json"
	"math"

	"github.com/thellimist/specmcp/internal/oas"
)

// ParseSchema walks an input schema and returns one Field per property, in
// property declaration order.
//
// Edge cases:
//   - nil, empty or non-object schema → returns nil
//   - Missing or non-object "properties" → returns nil
//   - Non-object property entry → that property is skipped
//   - Missing "type" on a property → reported as "unknown", coerced as text
//
// Fields are derived on every call and never cached.
func ParseSchema(schema any) []Field {
	root, ok := schema.(*oas.Object)
	if !ok || root.Len() == 0 {
		return nil
	}

	properties, ok := root.Object("properties")
	if !ok || properties.Len() == 0 {
		return nil
	}

	requiredSet := RequiredSet(root)

	fields := make([]Field, 0, properties.Len())
	for _, name := range properties.Keys() {
		raw, _ := properties.Get(name)
		prop, ok := raw.(*oas.Object)
		if !ok {
			continue
		}

		schemaType, _ := prop.Get("type")
		f := Field{
			Name:        name,
			Type:        mapSchemaType(schemaType),
			Required:    requiredSet[name],
			Description: prop.String("description"),
			Format:      prop.String("format"),
		}
		f.kind = kindFor(f.Type)

		if ex, ok := prop.Get("example"); ok {
			f.Example = ex
		}

		// Enum values are kept as literals, not stringified.
		if enumRaw, ok := prop.Get("enum"); ok {
			if vals, ok := enumRaw.([]any); ok {
				f.Enum = vals
			}
		}

		if v, ok := prop.Get("maxLength"); ok {
			if n, ok := intValue(v); ok {
				f.MaxLength = &n
			}
		}
		if v, ok := prop.Get("minLength"); ok {
			if n, ok := intValue(v); ok {
				f.MinLength = &n
			}
		}

		fields = append(fields, f)
	}

	return fields
}

// RequiredSet returns the names listed in the schema's "required" array.
// Non-string entries are ignored; an absent list means nothing is required.
func RequiredSet(schema *oas.Object) map[string]bool {
	requiredSet := make(map[string]bool)
	reqRaw, ok := schema.Get("required")
	if !ok {
		return requiredSet
	}
	if reqArr, ok := reqRaw.([]any); ok {
		for _, v := range reqArr {
			if s, ok := v.(string); ok {
				requiredSet[s] = true
			}
		}
	}
	return requiredSet
}

// intValue converts a decoded JSON number to an int when it is integral.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil || f != math.Trunc(f) || !fitsInt64(f) {
			return 0, false
		}
		return int(f), true
	case int:
		return n, true
	case float64:
		if n != math.Trunc(n) || !fitsInt64(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}
