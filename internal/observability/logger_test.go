package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerFromContext_AddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := WithCorrelationID(context.Background(), "corr-1")
	LoggerFromContext(ctx).Info("hello")

	require.Equal(t, "corr-1", CorrelationID(ctx))
	require.Contains(t, buf.String(), `"correlation_id":"corr-1"`)
}

func TestLoggerFromContext_WithoutCorrelationID(t *testing.T) {
	require.Empty(t, CorrelationID(context.Background()))
	require.NotNil(t, LoggerFromContext(context.Background()))
}
