// Package app wires the loader, compiler, invoker, metrics and MCP server
// together from a validated configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/thellimist/specmcp/internal/config"
	"github.com/thellimist/specmcp/internal/invoke"
	"github.com/thellimist/specmcp/internal/mcp"
	"github.com/thellimist/specmcp/internal/metrics"
	"github.com/thellimist/specmcp/internal/nameutil"
	"github.com/thellimist/specmcp/internal/oas"
	"github.com/thellimist/specmcp/internal/tool"
	"github.com/thellimist/specmcp/internal/toolfilter"
)

// App holds all application components.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Document *oas.Document
	Tools    []tool.Tool
	Registry tool.Registry
	Server   *server.MCPServer
	Metrics  *metrics.Metrics

	gatherer *prometheus.Registry
}

// Compile loads the configured document and returns its filtered tool set.
// Load failures are returned instead of being swallowed so the process can
// exit non-zero.
func Compile(cfg *config.Config, logger *slog.Logger) (*oas.Document, []tool.Tool, error) {
	loader := oas.NewLoader(logger)
	loader.Validate = cfg.Spec.Validate

	doc, err := loader.LoadDocument(cfg.Spec.Path)
	if err != nil {
		return nil, nil, err
	}
	for _, issue := range doc.ValidationIssues {
		logger.Warn("document validation issue", "issue", issue)
	}

	tools := tool.Compile(doc.Operations, tool.Options{MaxExampleDepth: cfg.Spec.MaxExampleDepth}, logger)
	tools, err = toolfilter.FilterTools(tools, cfg.Tools.Include, cfg.Tools.Exclude)
	if err != nil {
		return nil, nil, err
	}
	return doc, tools, nil
}

// New builds the application. The tool set is fixed once New returns.
func New(cfg *config.Config, version string, logger *slog.Logger) (*App, error) {
	doc, tools, err := Compile(cfg, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Document: doc,
		Tools:    tools,
		gatherer: prometheus.NewRegistry(),
	}
	a.gatherer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.gatherer)
	a.Metrics.SetOperations(len(doc.Operations), len(doc.Skipped))

	name := cfg.Server.Name
	if name == "" {
		name = nameutil.InferServerName(doc.Title, doc.Source)
	}
	a.Server = mcp.NewServer(mcp.Options{
		Name:       name,
		Version:    version,
		Middleware: []server.ToolHandlerMiddleware{a.Metrics.ToolMiddleware(a.kindOf)},
	})

	var inv tool.Invoker
	if cfg.Invoke.Enabled() {
		invoker, err := invoke.New(invoke.Options{
			BaseURL:          cfg.Invoke.BaseURL,
			Timeout:          cfg.Invoke.TimeoutDuration(),
			RateLimit:        cfg.Invoke.RateLimit,
			Burst:            cfg.Invoke.Burst,
			MaxResponseBytes: cfg.Invoke.MaxResponseBytes,
		}, &cfg.Presets, logger)
		if err != nil {
			return nil, fmt.Errorf("configuring invoker: %w", err)
		}
		inv = invoker
		a.warnUnknownPresetTools()
	}

	a.Registry = tool.Register(a.Server, tools, inv, logger)
	counts := map[tool.Kind]int{tool.KindDescribe: 0, tool.KindCall: 0}
	for _, kind := range a.Registry {
		counts[kind]++
	}
	for kind, n := range counts {
		a.Metrics.SetToolsRegistered(string(kind), n)
	}

	logger.Info("tools registered",
		"server", name,
		"describe", counts[tool.KindDescribe],
		"call", counts[tool.KindCall],
		"skipped_operations", len(doc.Skipped))
	return a, nil
}

// Run serves the configured transport until ctx is done or, for stdio, the
// input is closed.
func (a *App) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if a.Config.Server.Transport == config.TransportHTTP {
		return mcp.ServeHTTP(ctx, a.Server, mcp.HTTPOptions{
			Listen:          a.Config.Server.Listen,
			ShutdownTimeout: a.Config.Server.ShutdownDuration(),
			Gatherer:        a.gatherer,
			Metrics:         a.Metrics,
		}, a.Logger)
	}
	return mcp.ServeStdio(ctx, a.Server, stdin, stdout, a.Logger)
}

// Gatherer exposes the metrics registry.
func (a *App) Gatherer() prometheus.Gatherer {
	return a.gatherer
}

func (a *App) kindOf(name string) string {
	return string(a.Registry.Kind(name))
}

func (a *App) warnUnknownPresetTools() {
	names := make([]string, len(a.Tools))
	for i, t := range a.Tools {
		names[i] = t.Name
	}
	for name := range a.Config.Presets.Tools {
		if slices.Contains(names, name) {
			continue
		}
		if suggestion := toolfilter.SuggestTool(name, names); suggestion != "" {
			a.Logger.Warn("presets configured for unknown tool", "tool", name, "did_you_mean", suggestion)
			continue
		}
		a.Logger.Warn("presets configured for unknown tool", "tool", name)
	}
}
