package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/thellimist/specmcp/internal/oas"
	"github.com/thellimist/specmcp/internal/schema"
)

// PathParams returns the {name} parameters of a path template, in order.
func PathParams(path string) []string {
	var params []string
	for {
		start := strings.IndexByte(path, '{')
		if start < 0 {
			return params
		}
		end := strings.IndexByte(path[start:], '}')
		if end < 0 {
			return params
		}
		if name := path[start+1 : start+end]; name != "" {
			params = append(params, name)
		}
		path = path[start+end+1:]
	}
}

func (i *Invoker) newRequest(ctx context.Context, op *oas.Operation, args map[string]any) (*http.Request, error) {
	args, err := coerceArgs(op, args)
	if err != nil {
		return nil, err
	}

	path, rest, err := expandPath(op.Path, args)
	if err != nil {
		return nil, err
	}
	target := i.base.JoinPath(path)

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case op.InputContentType == oas.ContentTypeMultipart:
		body, contentType, err = multipartBody(rest)
		if err != nil {
			return nil, fmt.Errorf("encode multipart body: %w", err)
		}
	case op.InputContentType == oas.ContentTypeJSON || (len(rest) > 0 && !bodiless(op.Method)):
		data, err := json.Marshal(rest)
		if err != nil {
			return nil, fmt.Errorf("encode json body: %w", err)
		}
		body, contentType = bytes.NewReader(data), oas.ContentTypeJSON
	case len(rest) > 0:
		q := target.Query()
		for _, k := range slices.Sorted(maps.Keys(rest)) {
			q.Set(k, stringify(rest[k]))
		}
		target.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, op.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json, */*")
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// bodiless reports whether leftover arguments of method go to the query
// string when the operation declares no request body.
func bodiless(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

// coerceArgs converts arguments that match a body field to the field's type.
func coerceArgs(op *oas.Operation, args map[string]any) (map[string]any, error) {
	out := maps.Clone(args)
	if out == nil {
		out = map[string]any{}
	}
	for _, f := range schema.ParseSchema(op.InputSchema) {
		v, ok := out[f.Name]
		if !ok {
			continue
		}
		c, err := schema.Coerce(f, v)
		if err != nil {
			return nil, fmt.Errorf("invalid argument: %w", err)
		}
		out[f.Name] = c
	}
	return out, nil
}

// expandPath fills the {name} segments of tmpl and returns the arguments
// left over.
func expandPath(tmpl string, args map[string]any) (string, map[string]any, error) {
	rest := maps.Clone(args)
	path := tmpl
	for _, name := range PathParams(tmpl) {
		v, ok := rest[name]
		if !ok || v == nil {
			return "", nil, fmt.Errorf("missing path parameter %q", name)
		}
		s := stringify(v)
		if s == "" {
			return "", nil, fmt.Errorf("empty path parameter %q", name)
		}
		// JoinPath cleans dot segments, which would escape the template.
		if s == "." || s == ".." {
			return "", nil, fmt.Errorf("invalid path parameter %q: %q", name, s)
		}
		path = strings.ReplaceAll(path, "{"+name+"}", url.PathEscape(s))
		delete(rest, name)
	}
	return path, rest, nil
}

func multipartBody(args map[string]any) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range slices.Sorted(maps.Keys(args)) {
		if err := w.WriteField(k, stringify(args[k])); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// stringify renders a value for a path segment, query string or form field.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
