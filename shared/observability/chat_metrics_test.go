package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestChatMetricsRecord(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))

	m, err := NewChatMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.Outcome(ctx, "OK")
	m.Outcome(ctx, "DAILY_LIMIT_REACHED")
	m.Tokens(ctx, "gpt-4o-mini", 42)
	m.Warning(ctx, "persist_user_message")
	m.Completion(ctx, "success", 150*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			names[metric.Name] = true
		}
	}
	assert.True(t, names["chat_requests_total"])
	assert.True(t, names["chat_completion_tokens_total"])
	assert.True(t, names["chat_persistence_warnings_total"])
	assert.True(t, names["chat_completion_duration_seconds"])
}

func TestNilChatMetricsIsNoop(t *testing.T) {
	var m *ChatMetrics
	assert.NotPanics(t, func() {
		m.Outcome(context.Background(), "OK")
		m.Tokens(context.Background(), "x", 1)
		m.Warning(context.Background(), "x")
		m.Completion(context.Background(), "x", time.Second)
	})
}
