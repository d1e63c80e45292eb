// Package invoke forwards call tool invocations to the HTTP API described by
// the loaded document.
package invoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/thellimist/specmcp/internal/oas"
	"github.com/thellimist/specmcp/internal/preset"
)

const (
	DefaultTimeout          = 30 * time.Second
	DefaultMaxResponseBytes = 1 << 20

	userAgent       = "specmcp"
	requestIDHeader = "X-Request-Id"
)

// ErrNoBaseURL is returned by New when no base URL is configured.
var ErrNoBaseURL = errors.New("invoke: base url not configured")

// Options configures an Invoker.
type Options struct {
	BaseURL          string
	Timeout          time.Duration // <= 0 means DefaultTimeout
	RateLimit        float64       // requests per second; 0 disables limiting
	Burst            int
	MaxResponseBytes int64 // <= 0 means DefaultMaxResponseBytes
}

// Response is the upstream reply to one call.
type Response struct {
	StatusCode int
	Body       []byte
	Truncated  bool
}

func (r *Response) String() string {
	s := fmt.Sprintf("status code: %d\nresponse body: %s", r.StatusCode, r.Body)
	if r.Truncated {
		s += "\n(response body truncated)"
	}
	return s
}

// Invoker sends operations to the upstream API. It is safe for concurrent use.
type Invoker struct {
	base     *url.URL
	client   *http.Client
	limiter  *rate.Limiter
	presets  *preset.Config
	maxBytes int64
	logger   *slog.Logger
}

// New returns an Invoker for opts. presets may be nil.
func New(opts Options, presets *preset.Config, logger *slog.Logger) (*Invoker, error) {
	if opts.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invoke: parsing base url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("invoke: base url %q must be an absolute http(s) url", opts.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxResponseBytes
	}

	inv := &Invoker{
		base:     base,
		client:   &http.Client{Timeout: timeout},
		presets:  presets,
		maxBytes: maxBytes,
		logger:   logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		inv.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return inv, nil
}

// Hidden returns the preset params that callers of tool never see.
func (i *Invoker) Hidden(tool string) []string {
	return i.presets.Hidden(tool)
}

// Call sends op to the upstream API with args as its parameters. Presets are
// merged in, arguments matching body fields are coerced to their declared
// types, and {name} path segments are filled from the arguments. A non-2xx
// status is not an error; it is reported in the Response.
func (i *Invoker) Call(ctx context.Context, op *oas.Operation, args map[string]any) (*Response, error) {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := i.newRequest(ctx, op, i.presets.Apply(op.Name, args))
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	req.Header.Set(requestIDHeader, id)

	start := time.Now()
	i.logger.Debug("calling upstream", "tool", op.Name, "method", req.Method, "url", req.URL.String(), "request_id", id)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, i.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	out := &Response{StatusCode: resp.StatusCode, Body: body}
	if int64(len(body)) > i.maxBytes {
		out.Body = body[:i.maxBytes]
		out.Truncated = true
	}

	i.logger.Debug("upstream replied", "tool", op.Name, "status", resp.StatusCode,
		"bytes", len(out.Body), "duration", time.Since(start), "request_id", id)
	return out, nil
}
