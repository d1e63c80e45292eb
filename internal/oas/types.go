package oas

import "errors"

// Load failures. Callers match them with errors.Is.
var (
	ErrSpecNotFound   = errors.New("spec not found")
	ErrSpecParse      = errors.New("spec parse error")
	ErrSpecValidation = errors.New("spec validation error")
)

// Content types the loader recognises for request bodies, in preference order.
const (
	ContentTypeJSON      = "application/json"
	ContentTypeMultipart = "multipart/form-data"
)

// Methods lists the path item keys treated as operations, in the order they
// are usually written.
var Methods = []string{"get", "post", "put", "delete", "patch", "head", "options"}

var methodSet = func() map[string]bool {
	m := make(map[string]bool, len(Methods))
	for _, k := range Methods {
		m[k] = true
	}
	return m
}()

// IsMethod reports whether a path item key names an HTTP operation.
func IsMethod(key string) bool {
	return methodSet[key]
}

// Operation describes one (method, path) pair of the document. It is built
// once at load time and never modified afterwards.
type Operation struct {
	Name        string // operationId, or "METHOD /path" when absent
	Summary     string
	Description string
	Method      string // uppercase
	Path        string

	InputSchema      *Object // nil when the operation has no usable body schema
	InputContentType string  // ContentTypeJSON, ContentTypeMultipart, or ""
	OutputSchema     *Object // 200 application/json schema, or nil

	RequestContent *Object // requestBody.content, or nil
	Responses      *Object // responses, or nil
}

// Label returns "METHOD /path" for use in log lines.
func (op *Operation) Label() string {
	return op.Method + " " + op.Path
}

// SkippedOperation records an operation the loader could not build.
type SkippedOperation struct {
	Method string
	Path   string
	Reason string
}

// Document is the result of a successful load.
type Document struct {
	Source           string
	OpenAPI          string
	Title            string
	Version          string
	Operations       []Operation
	Skipped          []SkippedOperation
	ValidationIssues []string
}
