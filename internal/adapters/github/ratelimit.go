package github

import (
	"context"
	"sync"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/time/rate"

	"github.com/okian/scout/pkg/metrics"
)

const (
	// GitHubRateLimit is the authenticated hourly budget.
	GitHubRateLimit = 5000

	// ProactiveRate keeps a long import under the hourly budget (~4300/hr).
	ProactiveRate = 1.2

	// MinBuffer is the remaining budget below which requests wait for the reset.
	MinBuffer = 100
)

// RateLimiter combines a token bucket with the budget GitHub reports back.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
	minBuffer int
}

// NewRateLimiter throttles to r requests per second.
func NewRateLimiter(r rate.Limit) *RateLimiter {
	return &RateLimiter{
		remaining: GitHubRateLimit,
		limit:     GitHubRateLimit,
		bucket:    rate.NewLimiter(r, 1),
		minBuffer: MinBuffer,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining, resetTime := r.remaining, r.resetTime
	r.mu.Unlock()

	if remaining < r.minBuffer && time.Now().Before(resetTime) {
		timer := time.NewTimer(time.Until(resetTime))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// Update records the budget parsed from a response. Responses without rate
// headers are ignored.
func (r *RateLimiter) Update(rt gh.Rate) {
	if rt.Limit == 0 {
		return
	}
	r.mu.Lock()
	r.remaining = rt.Remaining
	r.limit = rt.Limit
	r.resetTime = rt.Reset.Time
	r.mu.Unlock()
	metrics.UpdateGitHubRateRemaining(rt.Remaining)
}

// Remaining returns the last reported budget.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the last reported hourly limit.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns when the budget resets.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}
