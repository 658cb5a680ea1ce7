package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/brianfending/contact-service/internal/adapters/http/middleware"
	"github.com/brianfending/contact-service/internal/platform/config"
	"github.com/brianfending/contact-service/internal/platform/logging"
)

const defaultTimeout = 10 * time.Second

// Config configures the client for one downstream.
type Config struct {
	// BaseURL prefixes relative paths, e.g. "https://example.atlassian.net".
	BaseURL string

	// ServiceName names the downstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt, not the whole call.
	Timeout time.Duration

	// Retry.MaxAttempts below 1 means one attempt. Record-creating
	// downstreams should stay at one.
	Retry config.RetryConfig

	Circuit config.CircuitBreakerConfig

	// Transport sizes the connection pool. Zero values keep net/http defaults.
	Transport config.TransportConfig

	// AuthFunc signs each attempt.
	AuthFunc func(*http.Request)

	// ForwardIdentity sends the request and correlation IDs and the trace
	// context downstream. Leave it off for third-party APIs.
	ForwardIdentity bool

	Logger *slog.Logger
}

// Client calls one downstream with retries, a circuit breaker, tracing and
// metrics. Inbound IDs are forwarded only when Config.ForwardIdentity is set.
//
// A call that ends in a response is returned to the caller even when the
// status is an error, so adapters can read the error body. Only transport
// failures and an open circuit come back as errors.
type Client struct {
	http        *http.Client
	baseURL     string
	service     string
	maxAttempts int
	backoff     backoff
	auth        func(*http.Request)
	forward     bool
	cb          *CircuitBreaker
	inst        *instruments
	logger      *slog.Logger
	now         func() time.Time
}

// New builds a client. ServiceName is required.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	inst, err := newInstruments(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("downstream", cfg.ServiceName))

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		http:        &http.Client{Timeout: timeout, Transport: newTransport(cfg.Transport)},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		service:     cfg.ServiceName,
		maxAttempts: max(cfg.Retry.MaxAttempts, 1),
		backoff:     newBackoff(cfg.Retry),
		auth:        cfg.AuthFunc,
		forward:     cfg.ForwardIdentity,
		cb:          cb,
		inst:        inst,
		logger:      logger,
		now:         time.Now,
	}, nil
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}

	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}

	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}

// Do sends req, retrying per the retry policy while the breaker allows it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := c.now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.service),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.inst.record(ctx, req.Method, 0, outcomeCircuitOpen, 0)
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.inst.startSpan(ctx, req.Method, redactURL(req.URL))
	defer span.End()

	resp, err := c.attempt(ctx, req, logger)
	elapsed := c.now().Sub(start)

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.inst.record(ctx, req.Method, 0, outcomeError, elapsed)
		logger.WarnContext(ctx, "request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		return nil, err
	}

	if downstreamFailed(resp.StatusCode) {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	c.inst.record(ctx, req.Method, resp.StatusCode, statusClass(resp.StatusCode), elapsed)
	logger.DebugContext(ctx, "request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", elapsed),
	)

	return resp, nil
}

// attempt runs the retry loop. The last response is returned as is; the
// last transport error is wrapped in ErrMaxRetriesExceeded when it was
// retryable.
func (c *Client) attempt(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	for n := 1; ; n++ {
		c.sign(ctx, req)

		resp, err := c.http.Do(req.WithContext(ctx))
		retry := shouldRetry(ctx, resp, err)

		if !retry || n >= c.maxAttempts {
			if err != nil && retry {
				err = fmt.Errorf("%w after %d attempt(s): %w", ErrMaxRetriesExceeded, n, err)
			}

			return resp, err
		}

		wait := c.backoff.wait(n, resp, c.now())

		attrs := []slog.Attr{slog.Int("attempt", n), slog.Duration("backoff", wait)}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		} else {
			attrs = append(attrs, slog.Int("status", resp.StatusCode))
		}
		logger.LogAttrs(ctx, slog.LevelDebug, "retrying request", attrs...)

		discard(resp)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}

		if err := rewind(req); err != nil {
			return nil, fmt.Errorf("rewinding request body: %w", err)
		}
	}
}

// sign sets auth for one attempt, plus the propagated IDs and trace
// context when the downstream is trusted with them.
func (c *Client) sign(ctx context.Context, req *http.Request) {
	if c.auth != nil {
		c.auth(req)
	}

	if !c.forward {
		return
	}

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

// Get sends a GET to path.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// PostJSON sends v as a JSON body.
func (c *Client) PostJSON(ctx context.Context, path string, v any) (*http.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return c.post(ctx, path, "application/json", bytes.NewReader(body))
}

// PostForm sends values url-encoded.
func (c *Client) PostForm(ctx context.Context, path string, values url.Values) (*http.Response, error) {
	return c.post(ctx, path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	return c.Do(ctx, req)
}

// RoundTripper lets SDKs that build their own requests, such as the Sheets
// API, go through the same breaker, retries and telemetry.
func (c *Client) RoundTripper() http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return c.Do(req.Context(), req.Clone(req.Context()))
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// CircuitState reports the breaker state.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// url joins path onto the base URL. Absolute URLs pass through.
func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// redactURL drops the query string and user info, which may carry keys.
func redactURL(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	clean.User = nil

	return clean.String()
}
