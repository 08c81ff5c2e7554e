package discord

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiterConfig configures client-side rate limiting.
type RateLimiterConfig struct {
	// GlobalRate is the ceiling on requests per second across all routes.
	GlobalRate float64

	// GlobalBurst is the burst allowed by the global limiter.
	GlobalBurst int

	// RouteRate is the per-bucket ceiling in requests per second.
	// Zero leaves buckets limited only by Discord's headers.
	RouteRate float64

	// RouteBurst is the burst allowed per bucket when RouteRate is set.
	RouteBurst int
}

// DefaultRateLimiterConfig returns Discord's documented global limit.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GlobalRate:  50,
		GlobalBurst: 50,
	}
}

// bucket is the state of one Discord rate limit bucket.
type bucket struct {
	limiter *rate.Limiter

	mu           sync.Mutex
	blockedUntil time.Time
}

func (b *bucket) blockUntil(t time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.After(b.blockedUntil) {
		b.blockedUntil = t
	}
}

func (b *bucket) until() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockedUntil
}

// RateLimiter keeps one bucket per Discord X-RateLimit-Bucket hash and major
// parameter, plus a global limiter shared by every route.
// Routes whose hash is not known yet get a bucket of their own.
type RateLimiter struct {
	config RateLimiterConfig
	global *rate.Limiter
	now    func() time.Time

	mu          sync.Mutex
	globalUntil time.Time
	hashes      map[string]string
	buckets     map[string]*bucket
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	globalLimit := rate.Inf
	if config.GlobalRate > 0 {
		globalLimit = rate.Limit(config.GlobalRate)
	}
	if config.GlobalBurst <= 0 {
		config.GlobalBurst = 1
	}

	return &RateLimiter{
		config:  config,
		global:  rate.NewLimiter(globalLimit, config.GlobalBurst),
		now:     time.Now,
		hashes:  make(map[string]string),
		buckets: make(map[string]*bucket),
	}
}

// BucketKey returns the key of the bucket route currently maps to.
func (rl *RateLimiter) BucketKey(route Route) string {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.bucketKeyLocked(route)
}

func (rl *RateLimiter) bucketKeyLocked(route Route) string {
	if hash, ok := rl.hashes[route.Key()]; ok {
		return hash + ":" + route.Major
	}
	return route.Key() + ":" + route.Major
}

func (rl *RateLimiter) bucketFor(route Route) *bucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := rl.bucketKeyLocked(route)
	b, ok := rl.buckets[key]
	if !ok {
		limit, burst := rate.Inf, 1
		if rl.config.RouteRate > 0 {
			limit = rate.Limit(rl.config.RouteRate)
			burst = max(rl.config.RouteBurst, 1)
		}
		b = &bucket{limiter: rate.NewLimiter(limit, burst)}
		rl.buckets[key] = b
	}
	return b
}

// Wait blocks until a request on route may be sent.
func (rl *RateLimiter) Wait(ctx context.Context, route Route) error {
	rl.mu.Lock()
	globalUntil := rl.globalUntil
	rl.mu.Unlock()
	if err := sleepUntil(ctx, rl.now, globalUntil); err != nil {
		return err
	}

	if err := rl.global.Wait(ctx); err != nil {
		return err
	}

	b := rl.bucketFor(route)
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	return sleepUntil(ctx, rl.now, b.until())
}

// Update records the rate limit headers of a response on route.
func (rl *RateLimiter) Update(route Route, header http.Header) {
	if hash := header.Get("X-RateLimit-Bucket"); hash != "" {
		rl.mu.Lock()
		rl.hashes[route.Key()] = hash
		rl.mu.Unlock()
	}

	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil || remaining > 0 {
		return
	}
	resetAfter, ok := parseSeconds(header.Get("X-RateLimit-Reset-After"))
	if !ok {
		return
	}
	rl.bucketFor(route).blockUntil(rl.now().Add(resetAfter))
}

// RecordRateLimitHit blocks the global limiter or the route's bucket after a 429.
func (rl *RateLimiter) RecordRateLimitHit(route Route, rlErr *RateLimitError) {
	until := rl.now().Add(rlErr.RetryAfter)
	if rlErr.Global {
		rl.mu.Lock()
		if until.After(rl.globalUntil) {
			rl.globalUntil = until
		}
		rl.mu.Unlock()
		return
	}
	rl.bucketFor(route).blockUntil(until)
}

// RateLimiterStatus contains the current state of the rate limiter.
type RateLimiterStatus struct {
	Buckets            int
	KnownRoutes        int
	GlobalBlockedUntil time.Time
}

// Status returns the current status of the rate limiter.
func (rl *RateLimiter) Status() RateLimiterStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return RateLimiterStatus{
		Buckets:            len(rl.buckets),
		KnownRoutes:        len(rl.hashes),
		GlobalBlockedUntil: rl.globalUntil,
	}
}

// Reset forgets every bucket and global block.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.globalUntil = time.Time{}
	rl.hashes = make(map[string]string)
	rl.buckets = make(map[string]*bucket)
}

// parseSeconds parses Discord's fractional-second header values.
func parseSeconds(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func sleepUntil(ctx context.Context, now func() time.Time, t time.Time) error {
	d := t.Sub(now())
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
