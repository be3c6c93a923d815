package service

import (
	"context"
	"errors"

	"membership-platform/backend/pkg/resilience"
)

var errProviderUnavailable = errors.New("completion provider unavailable")

// BreakerGateway stops calling the provider after repeated rate-limit or unknown failures.
// Credential and billing failures pass through without tripping the circuit.
type BreakerGateway struct {
	next Gateway
	cb   *resilience.CircuitBreaker
}

func NewBreakerGateway(next Gateway, cb *resilience.CircuitBreaker) *BreakerGateway {
	return &BreakerGateway{next: next, cb: cb}
}

func (g *BreakerGateway) Configured() bool {
	return g.next.Configured()
}

func (g *BreakerGateway) Complete(ctx context.Context, req CompletionRequest) CompletionResult {
	var res CompletionResult
	err := g.cb.Execute(func() error {
		res = g.next.Complete(ctx, req)
		switch res.Kind {
		case CompletionRateLimited, CompletionUnknown:
			return errProviderUnavailable
		}
		return nil
	})
	if errors.Is(err, resilience.ErrOpen) {
		return CompletionResult{Kind: CompletionUnknown, Raw: "completion provider circuit open"}
	}
	return res
}
