// Package metrics records tool and transport activity for Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "specmcp"

// Tool call outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeToolError = "tool_error"
	OutcomeError     = "error"
)

// Metrics holds the collectors registered for one server.
type Metrics struct {
	toolCalls        *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec
	operations       *prometheus.GaugeVec
	toolsRegistered  *prometheus.GaugeVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		toolCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of MCP tool calls",
			},
			[]string{"tool", "kind", "outcome"},
		),
		toolCallDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "MCP tool call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		operations: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "operations",
				Help:      "Operations found in the loaded document",
			},
			[]string{"state"},
		),
		toolsRegistered: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tools_registered",
				Help:      "Tools registered on the MCP server",
			},
			[]string{"kind"},
		),
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// SetOperations records how many operations were loaded and skipped.
func (m *Metrics) SetOperations(loaded, skipped int) {
	m.operations.WithLabelValues("loaded").Set(float64(loaded))
	m.operations.WithLabelValues("skipped").Set(float64(skipped))
}

// SetToolsRegistered records the number of registered tools of one kind.
func (m *Metrics) SetToolsRegistered(kind string, n int) {
	m.toolsRegistered.WithLabelValues(kind).Set(float64(n))
}

// ToolMiddleware counts every tool call by tool name, kind and outcome.
// kindOf maps a tool name to its kind.
func (m *Metrics) ToolMiddleware(kindOf func(name string) string) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			kind := kindOf(request.Params.Name)
			start := time.Now()
			result, err := next(ctx, request)
			m.toolCallDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

			outcome := OutcomeOK
			switch {
			case err != nil:
				outcome = OutcomeError
			case result != nil && result.IsError:
				outcome = OutcomeToolError
			}
			m.toolCalls.WithLabelValues(request.Params.Name, kind, outcome).Inc()
			return result, err
		}
	}
}

// HTTPMiddleware counts requests served by next. path is used as the label
// instead of the request URL to keep cardinality bounded.
func (m *Metrics) HTTPMiddleware(path string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
