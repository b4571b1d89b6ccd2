package logging

import (
	"context"
	"log/slog"
	"strings"
)

type contextKey int

const (
	setIDKey contextKey = iota
	requestIDKey
)

// WithSetID returns a context tagged with a document set identifier.
func WithSetID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, setIDKey, strings.TrimSpace(id))
}

// SetIDFromContext returns the set identifier carried by ctx.
func SetIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, setIDKey)
}

// WithRequestID returns a context tagged with a request identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(id))
}

// RequestIDFromContext returns the request identifier carried by ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFromContext(ctx, requestIDKey)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(key).(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := SetIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSetID, id))
	}
	if rid, ok := RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRequestID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrArgs(fields)...)
}
