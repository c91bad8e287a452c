package crawler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostRateLimiter enforces a per-host crawl delay plus a global
// token-bucket request rate (golang.org/x/time/rate), replacing the
// teacher's hand-rolled TokenBucket with the ecosystem's standard
// limiter.
type HostRateLimiter struct {
	mu         sync.Mutex
	perHost    map[string]*rate.Limiter
	perHostRPS float64
	global     *rate.Limiter
	crawlDelay time.Duration
	lastAccess map[string]time.Time
}

// NewHostRateLimiter builds a limiter allowing perHostRPS requests per
// second per host (burst 1) and a global cap of 8*perHostRPS requests
// per second (burst 8*perHostRPS+1),
// additionally enforcing crawlDelay between requests to the same
// host.
func NewHostRateLimiter(crawlDelay time.Duration, perHostRPS float64) *HostRateLimiter {
	if perHostRPS <= 0 {
		perHostRPS = 2
	}
	return &HostRateLimiter{
		perHost:    make(map[string]*rate.Limiter),
		perHostRPS: perHostRPS,
		global:     rate.NewLimiter(rate.Limit(perHostRPS*8), int(perHostRPS*8)+1),
		crawlDelay: crawlDelay,
		lastAccess: make(map[string]time.Time),
	}
}

func (r *HostRateLimiter) limiterFor(host string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.perHost[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(r.perHostRPS), 1)
		r.perHost[host] = l
	}
	return l
}

// Wait blocks until it is polite to issue the next request to host:
// the global limiter, the per-host limiter, and the minimum crawl
// delay since the last request to that host must all be satisfied.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	if err := r.global.Wait(ctx); err != nil {
		return err
	}
	if err := r.limiterFor(host).Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	last, ok := r.lastAccess[host]
	r.mu.Unlock()

	if ok {
		if remaining := r.crawlDelay - time.Since(last); remaining > 0 {
			select {
			case <-time.After(remaining):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}

// RecordAccess marks the current time as the last request to host.
func (r *HostRateLimiter) RecordAccess(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastAccess[host] = time.Now()
}

// Jitter returns backoff plus up to +/-50% random jitter, used by
// URLItem.IncrementRetry for the spec's "exponential backoff plus
// jitter" retry policy.
func Jitter(backoff time.Duration) time.Duration {
	delta := time.Duration(rand.Int63n(int64(backoff) / 2))
	if rand.Intn(2) == 0 {
		return backoff + delta
	}
	return backoff - delta
}
