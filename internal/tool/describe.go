package tool

import (
	"github.com/thellimist/specmcp/internal/example"
	"github.com/thellimist/specmcp/internal/schema"
)

// NoParametersNote is returned when an operation documents neither body
// fields nor examples.
const NoParametersNote = "This operation has no documented parameters or examples."

// Description is the structured result of a describe tool call.
type Description struct {
	Summary  string          `json:"summary"`
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Fields   []schema.Field  `json:"fields,omitempty"`
	Examples *example.Bundle `json:"examples,omitempty"`
	Note     string          `json:"note,omitempty"`
}

// Describe projects the tool's operation into a Description. Fields and
// examples are derived on every call and never cached.
func (t *Tool) Describe() Description {
	op := &t.Operation
	d := Description{
		Summary: op.Summary,
		Method:  op.Method,
		Path:    op.Path,
	}
	if fields := schema.ParseSchema(op.InputSchema); len(fields) > 0 {
		d.Fields = fields
	}
	if b := example.Extract(op, t.maxDepth); !b.Empty() {
		d.Examples = &b
	}
	if d.Fields == nil && d.Examples == nil {
		d.Note = NoParametersNote
	}
	return d
}
