package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/thellimist/specmcp/internal/config"
	"github.com/thellimist/specmcp/internal/logging"
	"github.com/thellimist/specmcp/internal/oas"
	"github.com/thellimist/specmcp/internal/preset"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Spec.Path = "../oas/testdata/petstore.json"
	return cfg
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := New(cfg, "test", logging.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func connect(t *testing.T, a *App) (*client.Client, *mcp.InitializeResult) {
	t.Helper()
	c, err := client.NewInProcessClient(a.Server)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: "app-test", Version: "0.0.1"}
	res, err := c.Initialize(context.Background(), req)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return c, res
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("call %s: content is %T, want text", name, res.Content[0])
	}
	return text.Text, res.IsError
}

// ---------------------------------------------------------------------------
// Compile tests
// ---------------------------------------------------------------------------

func TestCompile_Filters(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tools.Exclude = []string{"createPet"}
	doc, tools, err := Compile(cfg, logging.Nop())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(doc.Operations) != 4 {
		t.Errorf("operations = %d, want 4", len(doc.Operations))
	}
	var names []string
	for _, tl := range tools {
		names = append(names, tl.Name)
	}
	want := []string{"listPets", "DELETE /pets/{petId}", "getPet"}
	if !slices.Equal(names, want) {
		t.Errorf("tools = %v, want %v", names, want)
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Run("missing document", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Spec.Path = "testdata/nope.json"
		_, _, err := Compile(cfg, logging.Nop())
		if !errors.Is(err, oas.ErrSpecNotFound) {
			t.Errorf("err = %v, want ErrSpecNotFound", err)
		}
	})

	t.Run("unknown include", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Tools.Include = []string{"getPets"}
		_, _, err := Compile(cfg, logging.Nop())
		if err == nil || !strings.Contains(err.Error(), "Did you mean 'getPet'?") {
			t.Errorf("err = %v, want suggestion", err)
		}
	})
}

// ---------------------------------------------------------------------------
// New tests
// ---------------------------------------------------------------------------

func TestNew_DescribeTools(t *testing.T) {
	a := newApp(t, testConfig(t))

	want := []string{"DELETE /pets/{petId}", "createPet", "getPet", "listPets"}
	if got := a.Registry.Names(); !slices.Equal(got, want) {
		t.Errorf("registered = %v, want %v", got, want)
	}

	c, info := connect(t, a)
	if info.ServerInfo.Name != "pet-store" || info.ServerInfo.Version != "test" {
		t.Errorf("server info = %+v, want pet-store/test", info.ServerInfo)
	}

	text, isErr := call(t, c, "listPets", nil)
	if isErr {
		t.Fatalf("listPets returned an error result: %s", text)
	}
	wantText, _ := json.Marshal(a.Tools[0].Describe())
	if text != string(wantText) {
		t.Errorf("listPets = %s, want %s", text, wantText)
	}

	n, err := testutil.GatherAndCount(a.Gatherer(), "specmcp_tool_calls_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 1 {
		t.Errorf("tool_calls_total series = %d, want 1", n)
	}
	expected := `
# HELP specmcp_tools_registered Tools registered on the MCP server
# TYPE specmcp_tools_registered gauge
specmcp_tools_registered{kind="call"} 0
specmcp_tools_registered{kind="describe"} 4
`
	if err := testutil.GatherAndCompare(a.Gatherer(), strings.NewReader(expected), "specmcp_tools_registered"); err != nil {
		t.Error(err)
	}
}

func TestNew_ServerNameOverride(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Name = "pets"
	_, info := connect(t, newApp(t, cfg))
	if info.ServerInfo.Name != "pets" {
		t.Errorf("server name = %q, want pets", info.ServerInfo.Name)
	}
}

func TestNew_CallTools(t *testing.T) {
	var gotPath, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7}`))
	}))
	defer upstream.Close()

	var logs bytes.Buffer
	logger, err := logging.New("warn", "logfmt", &logs)
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	cfg := testConfig(t)
	cfg.Invoke.BaseURL = upstream.URL
	cfg.Presets.Global.Params = map[string]any{"verbose": true}
	cfg.Presets.Tools = map[string]preset.ToolConfig{"getPett": {Params: map[string]any{"x": 1}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	a, err := New(cfg, "test", logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !strings.Contains(logs.String(), "did_you_mean=getPet") {
		t.Errorf("expected preset warning with suggestion, got:\n%s", logs.String())
	}
	if got := len(a.Registry.Names()); got != 8 {
		t.Errorf("registered %d tools, want 8", got)
	}

	c, _ := connect(t, a)
	text, isErr := call(t, c, "call_getPet", map[string]any{"petId": "7"})
	if isErr {
		t.Fatalf("call_getPet returned an error result: %s", text)
	}
	if text != "status code: 200\nresponse body: {\"id\":7}" {
		t.Errorf("call_getPet = %q", text)
	}
	if gotPath != "/pets/7" || gotQuery != "verbose=true" {
		t.Errorf("upstream saw %s?%s, want /pets/7?verbose=true", gotPath, gotQuery)
	}

	expected := `
# HELP specmcp_tool_calls_total Total number of MCP tool calls
# TYPE specmcp_tool_calls_total counter
specmcp_tool_calls_total{kind="call",outcome="ok",tool="call_getPet"} 1
`
	if err := testutil.GatherAndCompare(a.Gatherer(), strings.NewReader(expected), "specmcp_tool_calls_total"); err != nil {
		t.Error(err)
	}
}

func TestNew_BadBaseURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Invoke.BaseURL = "ftp://example.com"
	if _, err := New(cfg, "test", logging.Nop()); err == nil || !strings.Contains(err.Error(), "configuring invoker") {
		t.Errorf("err = %v, want invoker error", err)
	}
}

// ---------------------------------------------------------------------------
// Run tests
// ---------------------------------------------------------------------------

func TestRun_Stdio(t *testing.T) {
	a := newApp(t, testConfig(t))
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"getPet","arguments":{}}}` + "\n")
	var out bytes.Buffer
	if err := a.Run(context.Background(), in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), `\"path\":\"/pets/{petId}\"`) {
		t.Errorf("stdio output = %s", out.String())
	}
}
