package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"membership-platform/backend/shared/observability"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("membership-platform/backend/internal/service")

// OpenAIConfig configures the OpenAI gateway
type OpenAIConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxTokens    int64
	Temperature  float64
	FallbackText string
}

// OpenAIGateway is the Gateway backed by the OpenAI chat completions API
type OpenAIGateway struct {
	client  *openai.Client
	cfg     OpenAIConfig
	metrics *observability.ChatMetrics
}

func NewOpenAIGateway(cfg OpenAIConfig, metrics *observability.ChatMetrics) *OpenAIGateway {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIGateway{
		client:  openai.NewClient(opts...),
		cfg:     cfg,
		metrics: metrics,
	}
}

func (g *OpenAIGateway) Configured() bool {
	return g.cfg.APIKey != ""
}

func (g *OpenAIGateway) Complete(ctx context.Context, req CompletionRequest) CompletionResult {
	model := req.Model
	if model == "" {
		model = g.cfg.DefaultModel
	}

	ctx, span := tracer.Start(ctx, "openai.chat.completions")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    openai.F(toOpenAIMessages(req.Messages)),
		Model:       openai.F(openai.ChatModel(model)),
		MaxTokens:   openai.F(g.cfg.MaxTokens),
		Temperature: openai.F(g.cfg.Temperature),
	})

	var result CompletionResult
	if err != nil {
		result = classifyCompletionError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, result.Kind.String())
	} else {
		result = CompletionResult{
			Kind:   CompletionSuccess,
			Text:   g.cfg.FallbackText,
			Tokens: int(completion.Usage.TotalTokens),
		}
		if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
			result.Text = completion.Choices[0].Message.Content
		}
		span.SetAttributes(attribute.Int("llm.total_tokens", result.Tokens))
	}
	result.Model = model

	g.metrics.Completion(ctx, result.Kind.String(), time.Since(started))
	return result
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// classifyCompletionError maps provider failures onto the CompletionKind taxonomy.
// insufficient_quota arrives as a 429 but means billing, not throttling.
func classifyCompletionError(err error) CompletionResult {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		raw := fmt.Sprintf("%d %s", apierr.StatusCode, apierr.Message)
		switch {
		case apierr.StatusCode == http.StatusUnauthorized:
			return CompletionResult{Kind: CompletionUnauthorized, Raw: raw}
		case apierr.StatusCode == http.StatusPaymentRequired,
			apierr.StatusCode == http.StatusTooManyRequests && apierr.Code == "insufficient_quota":
			return CompletionResult{Kind: CompletionBillingExhausted, Raw: raw}
		case apierr.StatusCode == http.StatusTooManyRequests:
			return CompletionResult{Kind: CompletionRateLimited, Raw: raw}
		}
		return CompletionResult{Kind: CompletionUnknown, Raw: raw}
	}
	return CompletionResult{Kind: CompletionUnknown, Raw: err.Error()}
}
