package http

import (
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter allows limit requests per minute with a burst of the same size.
// A nil limiter or a non-positive limit allows everything.
type rateLimiter struct {
	limiter *rate.Limiter
}

func newRateLimiter(limit int) *rateLimiter {
	if limit <= 0 {
		return nil
	}
	return &rateLimiter{
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit),
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}
