package rexster

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names recorded by TracedTransport.
const (
	SpanGet    = "rexster.get"
	SpanPost   = "rexster.post"
	SpanDelete = "rexster.delete"
)

// TracedTransport wraps a Transport with OpenTelemetry tracing. Every round
// trip becomes one span carrying the URL, the status code and the duration.
//
// Thread-safety: safe for concurrent use if the inner transport is.
type TracedTransport struct {
	inner  Transport
	tracer trace.Tracer
}

// NewTracedTransport wraps inner with spans produced by tracer.
//
// Example:
//
//	t := NewTracedTransport(NewHTTPTransport(), otel.Tracer("rexster"))
func NewTracedTransport(inner Transport, tracer trace.Tracer) *TracedTransport {
	return &TracedTransport{inner: inner, tracer: tracer}
}

// Get implements Transport.
func (t *TracedTransport) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	ctx, span := t.start(ctx, SpanGet, rawURL)
	defer span.End()

	start := time.Now()
	resp, err := t.inner.Get(ctx, rawURL, query)
	finishSpan(span, start, resp, err)
	return resp, err
}

// Post implements Transport.
func (t *TracedTransport) Post(ctx context.Context, rawURL string, query, form url.Values) (*Response, error) {
	ctx, span := t.start(ctx, SpanPost, rawURL)
	defer span.End()

	start := time.Now()
	resp, err := t.inner.Post(ctx, rawURL, query, form)
	finishSpan(span, start, resp, err)
	return resp, err
}

// Delete implements Transport.
func (t *TracedTransport) Delete(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	ctx, span := t.start(ctx, SpanDelete, rawURL)
	defer span.End()

	start := time.Now()
	resp, err := t.inner.Delete(ctx, rawURL, query)
	finishSpan(span, start, resp, err)
	return resp, err
}

func (t *TracedTransport) start(ctx context.Context, name, rawURL string) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(attribute.String("rexster.url", rawURL))
	return ctx, span
}

func finishSpan(span trace.Span, start time.Time, resp *Response, err error) {
	span.SetAttributes(attribute.Float64("rexster.duration_ms", float64(time.Since(start).Milliseconds())))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	span.SetAttributes(attribute.Int("rexster.status_code", resp.StatusCode))
	if !resp.OK() {
		span.SetStatus(codes.Error, "non-success status")
		return
	}
	span.SetStatus(codes.Ok, "")
}
