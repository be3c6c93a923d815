package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "membership-platform/backend/chat"

// ChatMetrics holds the instruments recorded by the chat flow
type ChatMetrics struct {
	requests   metric.Int64Counter
	tokens     metric.Int64Counter
	warnings   metric.Int64Counter
	completion metric.Float64Histogram
}

// NewChatMetrics registers the chat instruments on the global meter provider.
func NewChatMetrics() (*ChatMetrics, error) {
	meter := otel.Meter(meterName)

	requests, err := meter.Int64Counter("chat_requests_total",
		metric.WithDescription("Chat requests by terminal outcome code"))
	if err != nil {
		return nil, err
	}
	tokens, err := meter.Int64Counter("chat_completion_tokens_total",
		metric.WithDescription("Tokens reported by the completion provider"))
	if err != nil {
		return nil, err
	}
	warnings, err := meter.Int64Counter("chat_persistence_warnings_total",
		metric.WithDescription("Non-fatal write failures after a completion"))
	if err != nil {
		return nil, err
	}
	completion, err := meter.Float64Histogram("chat_completion_duration_seconds",
		metric.WithDescription("Latency of completion provider calls"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &ChatMetrics{
		requests:   requests,
		tokens:     tokens,
		warnings:   warnings,
		completion: completion,
	}, nil
}

// Outcome counts one finished chat request. A nil receiver is a no-op.
func (m *ChatMetrics) Outcome(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// Tokens adds provider-reported token usage
func (m *ChatMetrics) Tokens(ctx context.Context, model string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tokens.Add(ctx, int64(n), metric.WithAttributes(attribute.String("model", model)))
}

// Warning counts a degraded write
func (m *ChatMetrics) Warning(ctx context.Context, step string) {
	if m == nil {
		return
	}
	m.warnings.Add(ctx, 1, metric.WithAttributes(attribute.String("step", step)))
}

// Completion records how long a provider call took and how it was classified
func (m *ChatMetrics) Completion(ctx context.Context, kind string, d time.Duration) {
	if m == nil {
		return
	}
	m.completion.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("kind", kind)))
}
