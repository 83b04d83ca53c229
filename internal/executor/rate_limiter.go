package executor

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// RateLimiter caps how often iterations may start, shared by all VUs.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows rps iteration starts per second. If rps is 0 or
// negative it returns nil, which never blocks.
func NewRateLimiter(rps float64) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	burst := int(math.Ceil(rps))
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until an iteration may start or ctx is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

// Limit returns the configured rate, or 0 for no limit.
func (r *RateLimiter) Limit() float64 {
	if r == nil || r.limiter == nil {
		return 0
	}
	return float64(r.limiter.Limit())
}
