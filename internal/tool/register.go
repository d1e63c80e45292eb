package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/thellimist/specmcp/internal/invoke"
	"github.com/thellimist/specmcp/internal/oas"
)

// CallPrefix is prepended to an operation name to form its call tool name.
const CallPrefix = "call_"

// Kind distinguishes the tools registered for one operation.
type Kind string

const (
	KindDescribe Kind = "describe"
	KindCall     Kind = "call"
	KindUnknown  Kind = "unknown"
)

// Invoker forwards call tool invocations to the real API.
type Invoker interface {
	Call(ctx context.Context, op *oas.Operation, args map[string]any) (*invoke.Response, error)
	// Hidden returns the preset parameter names removed from a tool's input
	// schema.
	Hidden(tool string) []string
}

// Registry maps every registered tool name to its kind.
type Registry map[string]Kind

// Kind returns the kind of a registered tool, or KindUnknown.
func (r Registry) Kind(name string) Kind {
	if k, ok := r[name]; ok {
		return k
	}
	return KindUnknown
}

// Names returns the registered tool names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Register adds a zero-argument describe tool for every Tool. When inv is
// non-nil a call_<name> tool is added as well.
func Register(srv *server.MCPServer, tools []Tool, inv Invoker, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	reg := make(Registry, len(tools)*2)

	for i := range tools {
		t := tools[i]
		srv.AddTool(describeTool(t), describeHandler(t))
		reg[t.Name] = KindDescribe
		logger.Debug("registered tool", "tool", t.Name, "operation", t.Operation.Label())
	}

	if inv == nil {
		return reg
	}

	for i := range tools {
		t := tools[i]
		name := CallPrefix + t.Name
		if _, taken := reg[name]; taken {
			logger.Warn("call tool name shadows an existing tool, skipping",
				"tool", name, "operation", t.Operation.Label())
			continue
		}
		ct, err := callTool(name, t, inv.Hidden(t.Name))
		if err != nil {
			logger.Warn("cannot build call tool, skipping", "tool", name, "err", err)
			continue
		}
		srv.AddTool(ct, callHandler(inv, t.Operation))
		reg[name] = KindCall
		logger.Debug("registered tool", "tool", name, "operation", t.Operation.Label())
	}
	return reg
}

// ---------------------------------------------------------------------------
// describe
// ---------------------------------------------------------------------------

func describeTool(t Tool) mcp.Tool {
	tool := mcp.NewTool(t.Name,
		mcp.WithDescription(t.Description),
		mcp.WithTitleAnnotation(t.Operation.Label()),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
		mcp.WithOutputSchema[Description](),
	)
	// Some clients reject an object schema without properties.
	tool.InputSchema = mcp.ToolInputSchema{}
	tool.RawInputSchema = []byte(`{"type":"object","properties":{}}`)
	return tool
}

func describeHandler(t Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d := t.Describe()
		text, err := json.Marshal(d)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding description: %v", err)), nil
		}
		return mcp.NewToolResultStructured(d, string(text)), nil
	}
}

// ---------------------------------------------------------------------------
// call
// ---------------------------------------------------------------------------

func callTool(name string, t Tool, hidden []string) (mcp.Tool, error) {
	raw, err := json.Marshal(callSchema(&t.Operation, hidden))
	if err != nil {
		return mcp.Tool{}, err
	}

	method := t.Operation.Method
	safe := method == "GET" || method == "HEAD" || method == "OPTIONS"
	tool := mcp.NewTool(name,
		mcp.WithDescription(fmt.Sprintf("Call %s. %s", t.Operation.Label(), t.Description)),
		mcp.WithTitleAnnotation(t.Operation.Label()),
		mcp.WithReadOnlyHintAnnotation(safe),
		mcp.WithDestructiveHintAnnotation(method == "DELETE"),
		mcp.WithIdempotentHintAnnotation(safe || method == "PUT" || method == "DELETE"),
		mcp.WithOpenWorldHintAnnotation(true),
	)
	tool.InputSchema = mcp.ToolInputSchema{}
	tool.RawInputSchema = raw
	return tool, nil
}

// callSchema returns the operation's body schema with hidden preset params
// removed and path template params added as required strings.
func callSchema(op *oas.Operation, hidden []string) *oas.Object {
	out := oas.NewObject()
	if op.InputSchema != nil {
		out = op.InputSchema.Without()
	}
	out.Set("type", "object")

	props, _ := out.Object("properties")
	props = props.Without(hidden...)

	var required []any
	if list, ok := out.Get("required"); ok {
		if items, ok := list.([]any); ok {
			for _, item := range items {
				if name, ok := item.(string); ok && !slices.Contains(hidden, name) {
					required = append(required, name)
				}
			}
		}
	}

	for _, p := range invoke.PathParams(op.Path) {
		if slices.Contains(hidden, p) {
			continue
		}
		if !props.Has(p) {
			param := oas.NewObject()
			param.Set("type", "string")
			param.Set("description", "Path parameter "+p)
			props.Set(p, param)
		}
		if !slices.Contains(required, any(p)) {
			required = append(required, p)
		}
	}

	out.Set("properties", props)
	if len(required) > 0 {
		out.Set("required", required)
	} else {
		out = out.Without("required")
	}
	return out
}

func callHandler(inv Invoker, op oas.Operation) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := inv.Call(ctx, &op, request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if resp.StatusCode >= 400 {
			return mcp.NewToolResultError(resp.String()), nil
		}
		return mcp.NewToolResultText(resp.String()), nil
	}
}
