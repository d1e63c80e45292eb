package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/thellimist/specmcp/internal/oas"
	"github.com/thellimist/specmcp/internal/preset"
)

type captured struct {
	method      string
	path        string
	rawPath     string
	query       string
	contentType string
	requestID   string
	body        []byte
}

func upstream(t *testing.T, status int, reply string) (*httptest.Server, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.rawPath = r.URL.EscapedPath()
		got.query = r.URL.RawQuery
		got.contentType = r.Header.Get("Content-Type")
		got.requestID = r.Header.Get(requestIDHeader)
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newInvoker(t *testing.T, opts Options, presets *preset.Config) *Invoker {
	t.Helper()
	inv, err := New(opts, presets, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return inv
}

func bodySchema(t *testing.T, src string) *oas.Object {
	t.Helper()
	v, err := oas.DecodeJSON([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v.(*oas.Object)
}

// ---------------------------------------------------------------------------
// New
// ---------------------------------------------------------------------------

func TestNew_Validation(t *testing.T) {
	if _, err := New(Options{}, nil, nil); !errors.Is(err, ErrNoBaseURL) {
		t.Errorf("err = %v, want ErrNoBaseURL", err)
	}
	for _, bad := range []string{"localhost:8080", "ftp://example.com", "/relative", "http://"} {
		if _, err := New(Options{BaseURL: bad}, nil, nil); err == nil {
			t.Errorf("expected error for base url %q", bad)
		}
	}
}

// ---------------------------------------------------------------------------
// PathParams / stringify
// ---------------------------------------------------------------------------

func TestPathParams(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/pets", nil},
		{"/pets/{petId}", []string{"petId"}},
		{"/orgs/{org}/repos/{repo}/issues", []string{"org", "repo"}},
		{"/broken/{open", nil},
		{"/empty/{}", nil},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := PathParams(tc.path); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("PathParams(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{int64(42), "42"},
		{2.5, "2.5"},
		{float64(3), "3"},
		{true, "true"},
		{json.Number("7"), "7"},
		{[]any{"a", "b"}, `["a","b"]`},
		{nil, ""},
	}
	for _, tc := range tests {
		if got := stringify(tc.in); got != tc.want {
			t.Errorf("stringify(%#v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Call
// ---------------------------------------------------------------------------

func TestCall_JSONBody(t *testing.T) {
	srv, got := upstream(t, http.StatusCreated, `{"id":1}`)
	inv := newInvoker(t, Options{BaseURL: srv.URL + "/v1"}, nil)

	op := &oas.Operation{
		Name:             "createPet",
		Method:           "POST",
		Path:             "/pets",
		InputContentType: oas.ContentTypeJSON,
		InputSchema:      bodySchema(t, `{"properties": {"name": {"type": "string"}, "age": {"type": "integer"}}}`),
	}
	resp, err := inv.Call(context.Background(), op, map[string]any{"name": "Rex", "age": float64(3)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}

	if got.method != "POST" || got.path != "/v1/pets" {
		t.Errorf("request = %s %s, want POST /v1/pets", got.method, got.path)
	}
	if got.contentType != oas.ContentTypeJSON {
		t.Errorf("content type = %q", got.contentType)
	}
	if string(got.body) != `{"age":3,"name":"Rex"}` {
		t.Errorf("body = %s", got.body)
	}
	if got.requestID == "" {
		t.Error("expected a request id header")
	}
	if resp.String() != "status code: 201\nresponse body: {\"id\":1}" {
		t.Errorf("response = %q", resp.String())
	}
}

func TestCall_PathAndQuery(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `ok`)
	inv := newInvoker(t, Options{BaseURL: srv.URL}, nil)

	op := &oas.Operation{Name: "getPet", Method: "GET", Path: "/pets/{petId}"}
	_, err := inv.Call(context.Background(), op, map[string]any{"petId": "a b/c", "verbose": true, "limit": float64(5)})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.rawPath != "/pets/a%20b%2Fc" {
		t.Errorf("path = %q, want /pets/a%%20b%%2Fc", got.rawPath)
	}
	if got.query != "limit=5&verbose=true" {
		t.Errorf("query = %q", got.query)
	}
	if len(got.body) != 0 {
		t.Errorf("GET should have no body, got %s", got.body)
	}
}

func TestCall_MissingPathParam(t *testing.T) {
	inv := newInvoker(t, Options{BaseURL: "http://127.0.0.1:1"}, nil)
	op := &oas.Operation{Name: "getPet", Method: "GET", Path: "/pets/{petId}"}
	_, err := inv.Call(context.Background(), op, nil)
	if err == nil || !strings.Contains(err.Error(), `missing path parameter "petId"`) {
		t.Errorf("err = %v, want missing path parameter", err)
	}
}

func TestCall_DotSegmentPathParam(t *testing.T) {
	inv := newInvoker(t, Options{BaseURL: "http://127.0.0.1:1/v1"}, nil)
	op := &oas.Operation{Name: "getPet", Method: "GET", Path: "/pets/{petId}"}
	for _, v := range []string{".", ".."} {
		_, err := inv.Call(context.Background(), op, map[string]any{"petId": v})
		if err == nil || !strings.Contains(err.Error(), `invalid path parameter "petId"`) {
			t.Errorf("petId=%q: err = %v, want invalid path parameter", v, err)
		}
	}
}

func TestCall_DotsInsidePathParamKept(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `ok`)
	inv := newInvoker(t, Options{BaseURL: srv.URL + "/v1"}, nil)

	op := &oas.Operation{Name: "getPet", Method: "GET", Path: "/pets/{petId}"}
	if _, err := inv.Call(context.Background(), op, map[string]any{"petId": "../admin"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got.rawPath != "/v1/pets/..%2Fadmin" {
		t.Errorf("path = %q, want /v1/pets/..%%2Fadmin", got.rawPath)
	}
}

func TestCall_Multipart(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `uploaded`)
	inv := newInvoker(t, Options{BaseURL: srv.URL}, nil)

	op := &oas.Operation{
		Name:             "upload",
		Method:           "POST",
		Path:             "/upload",
		InputContentType: oas.ContentTypeMultipart,
		InputSchema:      bodySchema(t, `{"properties": {"count": {"type": "integer"}}}`),
	}
	if _, err := inv.Call(context.Background(), op, map[string]any{"file": "a.txt", "count": "2"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !strings.HasPrefix(got.contentType, "multipart/form-data; boundary=") {
		t.Fatalf("content type = %q", got.contentType)
	}
	body := string(got.body)
	for _, want := range []string{`name="count"`, "\r\n\r\n2\r\n", `name="file"`, "\r\n\r\na.txt\r\n"} {
		if !strings.Contains(body, want) {
			t.Errorf("multipart body missing %q:\n%s", want, body)
		}
	}
}

func TestCall_CoercionError(t *testing.T) {
	inv := newInvoker(t, Options{BaseURL: "http://127.0.0.1:1"}, nil)
	op := &oas.Operation{
		Name:        "createPet",
		Method:      "POST",
		Path:        "/pets",
		InputSchema: bodySchema(t, `{"properties": {"age": {"type": "integer"}}}`),
	}
	_, err := inv.Call(context.Background(), op, map[string]any{"age": "old"})
	if err == nil || !strings.Contains(err.Error(), "invalid argument") {
		t.Errorf("err = %v, want invalid argument", err)
	}
}

func TestCall_Presets(t *testing.T) {
	srv, got := upstream(t, http.StatusOK, `{}`)
	presets := &preset.Config{
		Mode:   preset.ModeHidden,
		Global: preset.GlobalConfig{Params: map[string]any{"org": "acme"}},
	}
	inv := newInvoker(t, Options{BaseURL: srv.URL}, presets)

	if got := inv.Hidden("createPet"); !reflect.DeepEqual(got, []string{"org"}) {
		t.Errorf("Hidden = %v, want [org]", got)
	}

	op := &oas.Operation{Name: "createPet", Method: "POST", Path: "/pets", InputContentType: oas.ContentTypeJSON}
	if _, err := inv.Call(context.Background(), op, map[string]any{"org": "other", "name": "Rex"}); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if string(got.body) != `{"name":"Rex","org":"acme"}` {
		t.Errorf("body = %s", got.body)
	}
}

func TestCall_ErrorStatusIsNotAnError(t *testing.T) {
	srv, _ := upstream(t, http.StatusNotFound, `{"error":"no such pet"}`)
	inv := newInvoker(t, Options{BaseURL: srv.URL}, nil)
	resp, err := inv.Call(context.Background(), &oas.Operation{Name: "x", Method: "GET", Path: "/x"}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCall_TruncatesLargeBodies(t *testing.T) {
	srv, _ := upstream(t, http.StatusOK, strings.Repeat("x", 100))
	inv := newInvoker(t, Options{BaseURL: srv.URL, MaxResponseBytes: 10}, nil)
	resp, err := inv.Call(context.Background(), &oas.Operation{Name: "x", Method: "GET", Path: "/x"}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(resp.Body) != 10 || !resp.Truncated {
		t.Errorf("body len = %d truncated = %v, want 10 true", len(resp.Body), resp.Truncated)
	}
	if !strings.HasSuffix(resp.String(), "(response body truncated)") {
		t.Errorf("String() = %q", resp.String())
	}
}

func TestCall_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	inv := newInvoker(t, Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	if _, err := inv.Call(context.Background(), &oas.Operation{Name: "x", Method: "GET", Path: "/x"}, nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestCall_RateLimitHonoursContext(t *testing.T) {
	inv := newInvoker(t, Options{BaseURL: "http://127.0.0.1:1", RateLimit: 0.001, Burst: 1}, nil)
	// Drain the single burst token.
	inv.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := inv.Call(ctx, &oas.Operation{Name: "x", Method: "GET", Path: "/x"}, nil)
	if err == nil || !strings.Contains(err.Error(), "rate limiter") {
		t.Errorf("err = %v, want rate limiter error", err)
	}
}
