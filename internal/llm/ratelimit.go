package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	stopCh     chan struct{}
	tokens     int
	capacity   int
	refillRate int
	mu         sync.Mutex
	stopOnce   sync.Once
}

// newRateLimiter creates a new rate limiter with the specified requests per minute.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	rl := &rateLimiter{
		tokens:     requestsPerMinute,
		capacity:   requestsPerMinute,
		refillRate: requestsPerMinute,
		stopCh:     make(chan struct{}),
	}

	go rl.refill()

	return rl
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if rl.tryAcquire() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// tryAcquire attempts to acquire a token without blocking.
func (rl *rateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

// refill periodically adds tokens to the bucket.
func (rl *rateLimiter) refill() {
	ticker := time.NewTicker(time.Minute / time.Duration(rl.refillRate))
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			if rl.tokens < rl.capacity {
				rl.tokens++
			}
			rl.mu.Unlock()
		}
	}
}

// close stops the refill goroutine. Safe to call more than once.
func (rl *rateLimiter) close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// RateLimitedClient delays requests so the wrapped client sees at most the
// configured number of calls per minute.
type RateLimitedClient struct {
	next    Client
	limiter *rateLimiter
}

// WithRateLimit wraps client with a token bucket of requestsPerMinute.
func WithRateLimit(client Client, requestsPerMinute int) *RateLimitedClient {
	return &RateLimitedClient{
		next:    client,
		limiter: newRateLimiter(requestsPerMinute),
	}
}

// Send waits for a token, then forwards the request.
func (c *RateLimitedClient) Send(ctx context.Context, req Request) (Response, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return Response{}, err
	}
	return c.next.Send(ctx, req)
}

// Close stops the limiter's refill goroutine.
func (c *RateLimitedClient) Close() {
	c.limiter.close()
}
