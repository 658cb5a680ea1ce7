package clients

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/brianfending/contact-service/internal/adapters/clients"

// Outcomes recorded on http.client.request.total besides the status class.
const (
	outcomeCircuitOpen = "circuit_open"
	outcomeError       = "error"
)

// instruments are the tracer and meters shared by every call to one downstream.
type instruments struct {
	service  string
	tracer   trace.Tracer
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

func newInstruments(service string) (*instruments, error) {
	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of downstream calls including retries."),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	total, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Downstream calls by outcome."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &instruments{
		service:  service,
		tracer:   otel.Tracer(instrumentationName),
		duration: duration,
		total:    total,
	}, nil
}

func (in *instruments) startSpan(ctx context.Context, method, target string) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "HTTP "+method+" "+in.service,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
			attribute.String("peer.service", in.service),
		),
	)
}

// record counts one call. status is zero when no response came back.
func (in *instruments) record(ctx context.Context, method string, status int, outcome string, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", in.service),
		attribute.String("result", outcome),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	in.duration.Record(ctx, elapsed.Seconds(), set)
	in.total.Add(ctx, 1, set)
}

// statusClass renders 503 as "5xx".
func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}
