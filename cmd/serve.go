package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thellimist/specmcp/internal/app"
	"github.com/thellimist/specmcp/internal/config"
	"github.com/thellimist/specmcp/internal/logging"
)

var (
	serveDocFlags    documentFlags
	servePresetFlags presetFlags

	flagTransport     string
	flagListen        string
	flagServerName    string
	flagBaseURL       string
	flagInvokeTimeout string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the document's operations as MCP tools",
	Long: `Serve every operation of an OpenAPI document as an MCP tool.

Each tool takes no arguments and returns the operation's method, path, body
fields and simplified request/response examples. With --base-url, a
call_<tool> tool is added per operation that sends the request to the API.

Examples:
  # stdio, for an agent host that spawns the server
  specmcp serve --spec ./openapi.json

  # streamable HTTP on /mcp, with /health and /metrics
  specmcp serve --spec ./openapi.yaml --transport http --listen :8080

  # expose a subset and forward calls to the real API
  specmcp serve --spec ./openapi.json --include-tools listPets,getPet \
    --base-url https://api.example.com/v1 --preset api_key=$KEY`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	serveDocFlags.register(f)
	servePresetFlags.register(f)
	f.StringVar(&flagTransport, "transport", "", "stdio or http (default stdio)")
	f.StringVar(&flagListen, "listen", "", "listen address for the http transport (default 127.0.0.1:8080)")
	f.StringVar(&flagServerName, "server-name", "", "MCP server name (default inferred from the document title)")
	f.StringVar(&flagBaseURL, "base-url", "", "API base URL; enables call_<tool> tools")
	f.StringVar(&flagInvokeTimeout, "invoke-timeout", "", "timeout for calls to the API (default 30s)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, &serveDocFlags, &servePresetFlags, func(o *config.Overrides) {
		o.Transport = flagTransport
		o.Listen = flagListen
		o.ServerName = flagServerName
		o.BaseURL = flagBaseURL
		o.InvokeTimeout = flagInvokeTimeout
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a, err := app.New(cfg, appVersion, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()
	return a.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
