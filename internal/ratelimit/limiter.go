package ratelimit

import "context"

// ScopeOpportunityInsert throttles writes issued by the batch orchestrator.
const ScopeOpportunityInsert = "opportunity-insert"

// RateLimiter bounds how many operations per second a scope may perform
// across all API instances.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}

// Unlimited never throttles. It is used when no limit is configured.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, error) { return true, nil }

func (Unlimited) Wait(ctx context.Context, _ string) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
