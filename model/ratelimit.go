package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedModel waits for a limiter token before every request.
type RateLimitedModel struct {
	next    Model
	limiter *rate.Limiter
}

// WithRateLimit allows at most rps requests per second with the given burst.
func WithRateLimit(m Model, rps float64, burst int) *RateLimitedModel {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedModel{next: m, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Generate implements Model.
func (r *RateLimitedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return emit(nil, fmt.Errorf("rate limit: %w", err))
	}
	return r.next.Generate(ctx, req)
}

// Info implements Model.
func (r *RateLimitedModel) Info() Info { return r.next.Info() }
