package oas

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Loader reads OpenAPI documents and extracts their operations.
type Loader struct {
	logger *slog.Logger

	// Validate additionally runs the document through kin-openapi's
	// validator. Findings are logged and recorded, never fatal.
	Validate bool
}

// NewLoader returns a Loader that logs through logger.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load reads the document at path and returns its operations in declaration
// order. Any load failure is logged and yields an empty result; Load never
// returns an error to its caller. Use LoadDocument to inspect the failure.
func (l *Loader) Load(path string) []Operation {
	doc, err := l.LoadDocument(path)
	if err != nil {
		l.logger.Error("failed to load OpenAPI spec", "path", path, "err", err)
		return nil
	}
	return doc.Operations
}

// LoadDocument reads, validates and walks the document at path.
func (l *Loader) LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSpecNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrSpecParse, path, err)
	}

	doc, err := l.Parse(data, isYAMLPath(path))
	if err != nil {
		return nil, err
	}
	doc.Source = path

	l.logger.Info("loaded OpenAPI spec",
		"path", path,
		"title", doc.Title,
		"operations", len(doc.Operations),
		"skipped", len(doc.Skipped))
	return doc, nil
}

// Parse decodes raw document bytes. When asYAML is false the data must be
// JSON.
func (l *Loader) Parse(data []byte, asYAML bool) (*Document, error) {
	var (
		root any
		err  error
	)
	if asYAML {
		root, err = DecodeYAML(data)
	} else {
		root, err = DecodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpecParse, err)
	}

	spec, ok := root.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: document root is not an object", ErrSpecValidation)
	}

	paths, err := validateStructure(spec)
	if err != nil {
		return nil, err
	}

	openapi, _ := spec.Get("openapi")
	doc := &Document{OpenAPI: scalarText(openapi)}
	if info, ok := spec.Object("info"); ok {
		version, _ := info.Get("version")
		doc.Title = info.String("title")
		doc.Version = scalarText(version)
	}

	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		l.logger.Warn("OpenAPI version is not 3.x, continuing anyway", "openapi", doc.OpenAPI)
	}

	if l.Validate {
		doc.ValidationIssues = l.advisoryValidate(data)
	}

	for _, path := range paths.Keys() {
		item, _ := paths.Object(path)
		for _, key := range item.Keys() {
			if !IsMethod(key) {
				l.logger.Debug("skipping non-operation path key", "path", path, "key", key)
				continue
			}
			method := strings.ToUpper(key)
			op, err := buildOperation(method, path, item)
			if err != nil {
				l.logger.Warn("skipping operation", "method", method, "path", path, "err", err)
				doc.Skipped = append(doc.Skipped, SkippedOperation{Method: method, Path: path, Reason: err.Error()})
				continue
			}
			doc.Operations = append(doc.Operations, *op)
		}
	}

	return doc, nil
}

// validateStructure checks the top-level fields every usable document needs
// and returns the paths object.
func validateStructure(spec *Object) (*Object, error) {
	for _, field := range []string{"openapi", "info", "paths"} {
		if !spec.Has(field) {
			return nil, fmt.Errorf("%w: missing required field %q", ErrSpecValidation, field)
		}
	}

	paths, ok := spec.Object("paths")
	if !ok {
		return nil, fmt.Errorf("%w: \"paths\" must be an object", ErrSpecValidation)
	}
	if paths.Len() == 0 {
		return nil, fmt.Errorf("%w: \"paths\" is empty", ErrSpecValidation)
	}
	for _, p := range paths.Keys() {
		if _, ok := paths.Object(p); !ok {
			return nil, fmt.Errorf("%w: path item %q must be an object", ErrSpecValidation, p)
		}
	}
	return paths, nil
}

// buildOperation extracts one operation. Any structural problem in the
// operation is returned as an error so the caller can skip it.
func buildOperation(method, path string, item *Object) (*Operation, error) {
	raw, _ := item.Get(strings.ToLower(method))
	details, ok := raw.(*Object)
	if !ok {
		return nil, fmt.Errorf("operation must be an object, got %s", kindOf(raw))
	}

	op := &Operation{
		Method:      method,
		Path:        path,
		Summary:     details.String("summary"),
		Description: details.String("description"),
	}

	op.Name = details.String("operationId")
	if strings.TrimSpace(op.Name) == "" {
		op.Name = method + " " + path
	}

	if v, ok := details.Get("requestBody"); ok {
		body, ok := v.(*Object)
		if !ok {
			return nil, fmt.Errorf("requestBody must be an object, got %s", kindOf(v))
		}
		if c, ok := body.Get("content"); ok {
			content, ok := c.(*Object)
			if !ok {
				return nil, fmt.Errorf("requestBody.content must be an object, got %s", kindOf(c))
			}
			op.RequestContent = content
			for _, ct := range []string{ContentTypeJSON, ContentTypeMultipart} {
				schema, found, err := mediaSchema(content, ct)
				if err != nil {
					return nil, fmt.Errorf("requestBody: %w", err)
				}
				if found {
					op.InputSchema = schema
					op.InputContentType = ct
					break
				}
			}
		}
	}

	if v, ok := details.Get("responses"); ok {
		responses, ok := v.(*Object)
		if !ok {
			return nil, fmt.Errorf("responses must be an object, got %s", kindOf(v))
		}
		op.Responses = responses
		if ok200, ok := responses.Object("200"); ok {
			if content, ok := ok200.Object("content"); ok {
				schema, _, err := mediaSchema(content, ContentTypeJSON)
				if err != nil {
					return nil, fmt.Errorf("responses.200: %w", err)
				}
				op.OutputSchema = schema
			}
		}
	}

	return op, nil
}

// mediaSchema returns content[contentType].schema. found reports whether the
// media type is declared at all; a declared media type without a schema
// yields found=true and a nil schema.
func mediaSchema(content *Object, contentType string) (schema *Object, found bool, err error) {
	v, ok := content.Get(contentType)
	if !ok {
		return nil, false, nil
	}
	media, ok := v.(*Object)
	if !ok {
		return nil, true, fmt.Errorf("%s must be an object, got %s", contentType, kindOf(v))
	}
	s, ok := media.Get("schema")
	if !ok {
		return nil, true, nil
	}
	schema, ok = s.(*Object)
	if !ok {
		return nil, true, fmt.Errorf("%s schema must be an object, got %s", contentType, kindOf(s))
	}
	if schema.Len() == 0 {
		return nil, true, nil
	}
	return schema, true, nil
}

// advisoryValidate runs kin-openapi's validator and returns its findings.
func (l *Loader) advisoryValidate(data []byte) []string {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false

	doc, err := loader.LoadFromData(data)
	if err != nil {
		l.logger.Warn("advisory validation could not load document", "err", err)
		return []string{err.Error()}
	}
	if err := doc.Validate(context.Background()); err != nil {
		l.logger.Warn("advisory validation reported issues", "err", err)
		return []string{err.Error()}
	}
	return nil
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil, *Object, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case *Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "number"
	}
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
