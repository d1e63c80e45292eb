package schema

// Kind is the primitive a tool argument is coerced to before it is sent to
// the API.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindNumber
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "int64"
	case KindNumber:
		return "float64"
	case KindBoolean:
		return "bool"
	default:
		return "string"
	}
}

// mapSchemaType maps a JSON Schema type to the display type reported for a
// field.
//
// It handles:
//   - Basic types: string, integer, number, boolean
//   - Nullable types: when type is an array like ["string", "null"], picks the first non-"null" type
//   - Arrays, objects, absent and unrecognized types map to "unknown"
func mapSchemaType(schemaType any) string {
	switch t := schemaType.(type) {
	case string:
		return mapSingleType(t)
	case []any:
		// Nullable type: pick the first non-"null" entry.
		for _, v := range t {
			s, ok := v.(string)
			if ok && s != "null" {
				return mapSingleType(s)
			}
		}
		return TypeUnknown
	default:
		return TypeUnknown
	}
}

// mapSingleType maps a single JSON Schema type string to a display type.
func mapSingleType(t string) string {
	switch t {
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
		return t
	default:
		return TypeUnknown
	}
}

// kindFor maps a display type to its coercion kind. Everything that is not
// numeric or boolean is sent as text.
func kindFor(displayType string) Kind {
	switch displayType {
	case TypeInteger:
		return KindInteger
	case TypeNumber:
		return KindNumber
	case TypeBoolean:
		return KindBoolean
	default:
		return KindString
	}
}
