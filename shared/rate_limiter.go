package shared

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPRequestRateLimiter spaces outgoing requests by a minimum delay
type HTTPRequestRateLimiter struct {
	minimumDelay    time.Duration
	lastRequestTime time.Time
	mutex           sync.Mutex
	requestCount    int64
}

// NewHTTPRequestRateLimiter creates a new rate limiter with the specified minimum delay
func NewHTTPRequestRateLimiter(minimumDelay time.Duration) *HTTPRequestRateLimiter {
	return &HTTPRequestRateLimiter{
		minimumDelay: minimumDelay,
	}
}

// Wait blocks until the minimum delay has elapsed since the previous request
// or ctx is done. The slot is reserved before sleeping so concurrent callers
// queue up behind each other.
func (limiter *HTTPRequestRateLimiter) Wait(ctx context.Context) error {
	limiter.mutex.Lock()
	now := time.Now()
	next := limiter.lastRequestTime.Add(limiter.minimumDelay)
	if next.Before(now) {
		next = now
	}
	limiter.lastRequestTime = next
	limiter.requestCount++
	count := limiter.requestCount
	limiter.mutex.Unlock()

	remainingDelay := next.Sub(now)
	if remainingDelay <= 0 {
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"component":       "HTTPRequestRateLimiter",
		"minimum_delay":   limiter.minimumDelay,
		"remaining_delay": remainingDelay,
		"request_count":   count,
	}).Debug("Enforcing rate limit delay")

	timer := time.NewTimer(remainingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetRequestCount returns the total number of requests processed
func (limiter *HTTPRequestRateLimiter) GetRequestCount() int64 {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()
	return limiter.requestCount
}
