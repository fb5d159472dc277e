package oracle

import (
	"context"

	"github.com/tygershark/shiprecon/internal/resilience"
)

// Guarded decorates a Client with the engine's resilience stack: a circuit
// breaker that fails fast when the oracle is down, and the timeout-class
// retry policy. Malformed responses pass straight through untouched.
type Guarded struct {
	inner   Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// NewGuarded wraps a client. A nil breaker disables circuit breaking.
func NewGuarded(inner Client, breaker *resilience.Breaker, policy resilience.Policy) *Guarded {
	return &Guarded{inner: inner, breaker: breaker, policy: policy}
}

// Complete runs the call under retry + breaker. An open circuit returns
// resilience.ErrCircuitOpen immediately; callers treat that as oracle
// unavailability and take their fallback paths.
func (g *Guarded) Complete(ctx context.Context, req Request) (*Response, error) {
	return resilience.DoVal(ctx, g.policy, func(ctx context.Context) (*Response, error) {
		if g.breaker != nil {
			if err := g.breaker.Allow(); err != nil {
				return nil, err
			}
		}
		resp, err := g.inner.Complete(ctx, req)
		if g.breaker != nil {
			g.breaker.Record(err, resilience.IsRetryable)
		}
		return resp, err
	})
}
