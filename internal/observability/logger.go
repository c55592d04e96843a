package observability

import (
	"context"
	"log/slog"
)

type ctxKey string

const ctxKeyCorrelationID ctxKey = "correlation_id"

// WithCorrelationID stores the request correlation id in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationID, id)
}

// CorrelationID returns the id stored by WithCorrelationID, if any.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyCorrelationID).(string)
	return id
}

// LoggerFromContext returns the default logger, tagged with the correlation id
// when one is present.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	id := CorrelationID(ctx)
	if id == "" {
		return slog.Default()
	}
	return slog.Default().With("correlation_id", id)
}
