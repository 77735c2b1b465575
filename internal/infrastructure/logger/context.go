package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
	bidderIDKey  contextKey = "bidder_id"
	syncRunIDKey contextKey = "sync_run_id"
)

// WithContext returns a new context carrying logger
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the context logger, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID stores the request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithBidderID stores the authenticated bidder in ctx
func WithBidderID(ctx context.Context, bidderID string) context.Context {
	return context.WithValue(ctx, bidderIDKey, bidderID)
}

// WithSyncRunID stores the catalog sync run ID in ctx
func WithSyncRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, syncRunIDKey, runID)
}

func GetRequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }
func GetBidderID(ctx context.Context) string  { return stringValue(ctx, bidderIDKey) }
func GetSyncRunID(ctx context.Context) string { return stringValue(ctx, syncRunIDKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// GetTraceID returns the active span's trace ID, or "".
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// GetSpanID returns the active span's ID, or "".
func GetSpanID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}

// Fields collects the correlation fields present in ctx.
func Fields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetBidderID(ctx); v != "" {
		fields = append(fields, zap.String("bidder_id", v))
	}
	if v := GetSyncRunID(ctx); v != "" {
		fields = append(fields, zap.String("sync_run_id", v))
	}
	return fields
}

// L returns the context logger enriched with the correlation fields of ctx.
//
//	logger.L(ctx).Info("bid accepted", zap.Int64("price", price))
func L(ctx context.Context) *zap.Logger {
	return Enrich(ctx, FromContext(ctx))
}

// Enrich adds the correlation fields of ctx to base.
func Enrich(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := Fields(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
