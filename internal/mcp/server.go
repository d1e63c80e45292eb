// Package mcp hosts compiled tools on an mcp-go server over stdio or
// streamable HTTP.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"
)

const defaultInstructions = `Every tool of this server describes one operation of an HTTP API.

Call a tool without arguments to get the operation's method, path, body fields and a short example of its request and response.
When call_<tool> tools are listed, they send the request to the API with the arguments you pass.`

// Options configures the MCP server.
type Options struct {
	Name         string
	Version      string
	Instructions string // defaultInstructions when empty
	Middleware   []server.ToolHandlerMiddleware
}

// NewServer creates an MCP server with tool capabilities and the given
// tool handler middleware, applied in order.
func NewServer(opts Options) *server.MCPServer {
	instructions := opts.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}
	serverOpts := []server.ServerOption{
		server.WithLogging(),
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	}
	for _, mw := range opts.Middleware {
		serverOpts = append(serverOpts, server.WithToolHandlerMiddleware(mw))
	}
	return server.NewMCPServer(opts.Name, opts.Version, serverOpts...)
}
