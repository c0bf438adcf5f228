// Package ratelimit paces trial submissions.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a fixed minimum delay between submissions. A zero
// delay disables pacing.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewDelayLimiter allows one submission immediately and then one per delay.
func NewDelayLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(limitFor(delay), 1),
	}
}

func limitFor(delay time.Duration) rate.Limit {
	if delay <= 0 {
		return rate.Inf
	}
	return rate.Every(delay)
}

// Wait blocks until the next submission may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	if r.limiter.Limit() == rate.Inf {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Delay returns the inter-submission delay, zero when unpaced.
func (r *RateLimiter) Delay() time.Duration {
	if r == nil {
		return 0
	}
	limit := r.limiter.Limit()
	if limit == rate.Inf || limit == 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / float64(limit))
}
