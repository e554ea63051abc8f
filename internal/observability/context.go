package observability

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type contextKey string

// Keys double as the log field names emitted by FromContext.
const (
	traceIDKey   contextKey = "trace_id"
	spanIDKey    contextKey = "span_id"
	requestIDKey contextKey = "request_id"
	modelKey     contextKey = "model"
	attemptKey   contextKey = "attempt"
)

// W3C trace context sizes.
const (
	traceIDBytes = 16
	spanIDBytes  = 8
)

func stringValue(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithTraceID stores the trace ID of the current request.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// WithSpanID stores the span ID of the current request.
func WithSpanID(ctx context.Context, spanID string) context.Context {
	return context.WithValue(ctx, spanIDKey, spanID)
}

// WithRequestID stores the request identifier echoed in X-Request-Id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithModel stores the upstream model a draft is generated with.
func WithModel(ctx context.Context, model string) context.Context {
	return context.WithValue(ctx, modelKey, model)
}

// WithAttempt stores the 1-based upstream attempt number.
func WithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

func GetTraceID(ctx context.Context) string   { return stringValue(ctx, traceIDKey) }
func GetSpanID(ctx context.Context) string    { return stringValue(ctx, spanIDKey) }
func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }
func GetModel(ctx context.Context) string     { return stringValue(ctx, modelKey) }

// GetAttempt returns 0 outside a retry loop.
func GetAttempt(ctx context.Context) int {
	attempt, _ := ctx.Value(attemptKey).(int)
	return attempt
}

// IDsFromSpan returns the trace and span IDs of span, or fresh random ones
// when tracing is disabled and the span context is empty.
func IDsFromSpan(span trace.Span) (string, string) {
	if sc := span.SpanContext(); sc.IsValid() {
		return sc.TraceID().String(), sc.SpanID().String()
	}
	return GenerateTraceID(), GenerateSpanID()
}

// GenerateTraceID returns 32 hex characters.
func GenerateTraceID() string {
	return randomHex(traceIDBytes)
}

// GenerateSpanID returns 16 hex characters.
func GenerateSpanID() string {
	return randomHex(spanIDBytes)
}

func GenerateRequestID() string {
	return uuid.NewString()
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		u := uuid.New()
		copy(b, u[:])
	}
	return hex.EncodeToString(b)
}
