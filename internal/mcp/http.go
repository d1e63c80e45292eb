package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/thellimist/specmcp/internal/metrics"
)

const (
	mcpEndpoint            = "/mcp"
	healthEndpoint         = "/health"
	metricsEndpoint        = "/metrics"
	defaultShutdownTimeout = 10 * time.Second
)

// HTTPOptions configures the streamable HTTP transport.
type HTTPOptions struct {
	Listen          string
	ShutdownTimeout time.Duration
	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
	// Metrics counts requests per endpoint when set.
	Metrics *metrics.Metrics
}

// Handler returns the HTTP handler for the MCP, health and metrics
// endpoints. httpServer is handed to mcp-go so it can shut down sessions
// with it and may be nil.
func Handler(srv *server.MCPServer, httpServer *http.Server, opts HTTPOptions, logger *slog.Logger) http.Handler {
	streamOpts := []server.StreamableHTTPOption{
		server.WithEndpointPath(mcpEndpoint),
		server.WithStateLess(true),
		server.WithLogger(errorfLogger{logger: logger}),
	}
	if httpServer != nil {
		streamOpts = append(streamOpts, server.WithStreamableHTTPServer(httpServer))
	}
	streamable := server.NewStreamableHTTPServer(srv, streamOpts...)

	mux := http.NewServeMux()
	handle := func(path string, h http.Handler) {
		if opts.Metrics != nil {
			h = opts.Metrics.HTTPMiddleware(path, h)
		}
		mux.Handle(path, h)
	}

	handle(mcpEndpoint, streamable)
	handle(healthEndpoint, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))
	if opts.Gatherer != nil {
		handle(metricsEndpoint, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return requestLogger(logger, mux)
}

// ServeHTTP listens on opts.Listen and serves until ctx is done, then shuts
// down gracefully.
func ServeHTTP(ctx context.Context, srv *server.MCPServer, opts HTTPOptions, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", opts.Listen, err)
	}
	return serveListener(ctx, srv, ln, opts, logger)
}

func serveListener(ctx context.Context, srv *server.MCPServer, ln net.Listener, opts HTTPOptions, logger *slog.Logger) error {
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	httpServer := &http.Server{ReadHeaderTimeout: 10 * time.Second}
	httpServer.Handler = Handler(srv, httpServer, opts, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "listen_addr", ln.Addr().String(), "mcp_endpoint", mcpEndpoint)
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down HTTP server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("HTTP server shutdown complete")
		return nil
	})
	return g.Wait()
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("incoming request", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

// errorfLogger adapts slog to the printf-style logger mcp-go expects.
type errorfLogger struct {
	logger *slog.Logger
}

func (l errorfLogger) Infof(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l errorfLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
