package example

import "github.com/thellimist/specmcp/internal/oas"

// Bundle holds the example payloads of one operation. Either side may be
// absent.
type Bundle struct {
	Request  any `json:"request,omitempty"`
	Response any `json:"response,omitempty"`
}

// Empty reports whether neither example was found.
func (b Bundle) Empty() bool {
	return b.Request == nil && b.Response == nil
}

// Extract locates and simplifies the request and response examples of op.
//
// The request example is the first "example" found in requestBody.content,
// in content-type declaration order. When none exists, the input schema's
// per-property "example" values are assembled into an object. The response
// example is the first "example" found across all responses and their
// content types.
func Extract(op *oas.Operation, maxDepth int) Bundle {
	var b Bundle

	if ex, ok := firstContentExample(op.RequestContent); ok {
		b.Request = Simplify(ex, maxDepth)
	} else if ex, ok := propertyExamples(op.InputSchema); ok {
		b.Request = Simplify(ex, maxDepth)
	}

	for _, status := range op.Responses.Keys() {
		response, ok := op.Responses.Object(status)
		if !ok {
			continue
		}
		content, _ := response.Object("content")
		if ex, ok := firstContentExample(content); ok {
			b.Response = Simplify(ex, maxDepth)
			break
		}
	}

	return b
}

// firstContentExample returns the first media type's "example" value.
func firstContentExample(content *oas.Object) (any, bool) {
	for _, ct := range content.Keys() {
		media, ok := content.Object(ct)
		if !ok {
			continue
		}
		if ex, ok := media.Get("example"); ok && ex != nil {
			return ex, true
		}
	}
	return nil, false
}

// propertyExamples assembles an object from the schema properties that
// carry their own "example".
func propertyExamples(schema *oas.Object) (*oas.Object, bool) {
	props, ok := schema.Object("properties")
	if !ok {
		return nil, false
	}
	out := oas.NewObject()
	for _, name := range props.Keys() {
		prop, ok := props.Object(name)
		if !ok {
			continue
		}
		if ex, ok := prop.Get("example"); ok {
			out.Set(name, ex)
		}
	}
	if out.Len() == 0 {
		return nil, false
	}
	return out, true
}
