package schema

// Display types reported for a field. Anything the compiler does not
// recognise is reported as TypeUnknown.
const (
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeString  = "string"
	TypeUnknown = "unknown"
)

// Field describes one property of an operation's input schema.
type Field struct {
	Name        string `json:"name"`                // Original JSON key (e.g., "petId")
	Type        string `json:"type"`                // One of the Type* constants
	Required    bool   `json:"required"`            // True if listed in the schema's required array
	Description string `json:"description"`         // From schema description field
	Format      string `json:"format,omitempty"`    // From schema format field
	Enum        []any  `json:"enum,omitempty"`      // Allowed literal values, nil if not an enum
	Example     any    `json:"example,omitempty"`   // From schema example field
	MaxLength   *int   `json:"maxLength,omitempty"` // From schema maxLength field
	MinLength   *int   `json:"minLength,omitempty"` // From schema minLength field

	kind Kind
}

// Kind returns the primitive a value for this field is coerced to.
func (f Field) Kind() Kind {
	return f.kind
}
