package service

import "context"

// CompletionKind classifies the outcome of a completion call
type CompletionKind int

const (
	CompletionSuccess CompletionKind = iota
	CompletionUnauthorized
	CompletionRateLimited
	CompletionBillingExhausted
	CompletionUnknown
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionSuccess:
		return "success"
	case CompletionUnauthorized:
		return "unauthorized"
	case CompletionRateLimited:
		return "rate_limited"
	case CompletionBillingExhausted:
		return "billing_exhausted"
	default:
		return "unknown"
	}
}

// CompletionRequest is one provider call. An empty Model selects the gateway default.
type CompletionRequest struct {
	Model    string
	Messages []ChatMessage
}

// CompletionResult carries Text and Tokens only for CompletionSuccess.
// Raw holds the provider's error text for the other kinds.
type CompletionResult struct {
	Kind   CompletionKind
	Text   string
	Tokens int
	Model  string
	Raw    string
}

// Gateway calls the external completion provider
type Gateway interface {
	// Configured reports whether provider credentials are present.
	Configured() bool
	Complete(ctx context.Context, req CompletionRequest) CompletionResult
}
