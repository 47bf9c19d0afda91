package telegram

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces MTProto calls and honours FLOOD_WAIT pauses reported by
// the server.
type RateLimiter struct {
	limiter *rate.Limiter

	mu    sync.Mutex
	until time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second with the
// given burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// DefaultRateLimiter is tuned for history backfill and reply lookups on a
// single user session.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(2.0, 1)
}

// Wait blocks until a request is allowed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if d := r.FloodWaitRemaining(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.limiter.Wait(ctx)
}

// SetFloodWait pauses all requests for the given number of seconds.
func (r *RateLimiter) SetFloodWait(seconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.until = time.Now().Add(time.Duration(seconds) * time.Second)
}

// FloodWaitRemaining reports how long requests are still paused.
func (r *RateLimiter) FloodWaitRemaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d := time.Until(r.until); d > 0 {
		return d
	}
	return 0
}
