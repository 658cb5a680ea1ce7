package telemetry

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/brianfending/contact-service/internal/platform/logging"
)

const (
	instrumentationName = "github.com/brianfending/contact-service/telemetry"

	// HeaderTraceID carries the server span's trace ID back to the caller.
	HeaderTraceID = "X-Trace-ID"

	// unmatchedRoute labels requests that hit no route, keeping label cardinality bounded.
	unmatchedRoute = "unmatched"
)

type serverMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newServerMetrics(meter metric.Meter) (*serverMetrics, error) {
	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{duration: duration, total: total, active: active}, nil
}

// Middleware returns the server telemetry chain: an otelgin span around the
// request, then a handler that exposes the trace ID (X-Trace-ID header and
// trace_id on the context logger) and records request metrics.
func Middleware(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{
		otelgin.Middleware(serviceName),
		requestMiddleware(otel.Meter(instrumentationName)),
	}
}

func requestMiddleware(meter metric.Meter) gin.HandlerFunc {
	// A metrics failure is reported to otel and leaves tracing intact.
	metrics, err := newServerMetrics(meter)
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Header(HeaderTraceID, traceID)

			ctx = logging.With(ctx, slog.String("trace_id", traceID))
			c.Request = c.Request.WithContext(ctx)
		}

		if metrics == nil {
			c.Next()
			return
		}

		method := attribute.String("http.method", c.Request.Method)
		route := attribute.String("http.route", routeOf(c))

		inFlight := metric.WithAttributes(method, route)
		metrics.active.Add(ctx, 1, inFlight)
		defer metrics.active.Add(ctx, -1, inFlight)

		c.Next()

		done := metric.WithAttributes(method, route, attribute.Int("http.status_code", c.Writer.Status()))
		metrics.duration.Record(ctx, time.Since(start).Seconds(), done)
		metrics.total.Add(ctx, 1, done)
	}
}

func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}

	return unmatchedRoute
}
