// Package ratelimit provides per-platform token-bucket throttling for
// outbound API calls. Each platform gets an independently configured
// bucket; callers block in Acquire until a token is available.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Config defines one platform's bucket: burst capacity and steady refill.
type Config struct {
	Capacity        float64 // max tokens the bucket holds
	RefillPerSecond float64 // tokens added per second
}

// DefaultConfig is used for platforms with no explicit configuration.
var DefaultConfig = Config{Capacity: 10, RefillPerSecond: 1}

// Limiter manages one token bucket per platform key. Buckets are created
// lazily on first use and never shared across keys, so platforms never
// contend on each other's limits.
type Limiter struct {
	mu      sync.Mutex
	cfgs    map[string]Config
	buckets map[string]*bucket
	def     Config
	now     func() time.Time
}

// bucket is a single token bucket. The token count may go negative: a
// waiter reserves its token under the lock (which advances the schedule
// and gives FIFO admission) and then sleeps out its debt outside the lock.
type bucket struct {
	mu     sync.Mutex
	cfg    Config
	tokens float64
	last   time.Time
}

// New creates a limiter with per-platform configs. Platforms absent from
// cfgs fall back to DefaultConfig.
func New(cfgs map[string]Config) *Limiter {
	l := &Limiter{
		cfgs:    make(map[string]Config, len(cfgs)),
		buckets: make(map[string]*bucket),
		def:     DefaultConfig,
		now:     time.Now,
	}
	for k, c := range cfgs {
		l.cfgs[k] = c
	}
	return l
}

func (l *Limiter) bucketFor(key string) (*bucket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.buckets[key]; ok {
		return b, nil
	}
	cfg, ok := l.cfgs[key]
	if !ok {
		cfg = l.def
	}
	if cfg.Capacity < 1 || cfg.RefillPerSecond <= 0 {
		return nil, fmt.Errorf("ratelimit: invalid config for %q: %+v", key, cfg)
	}
	b := &bucket{cfg: cfg, tokens: cfg.Capacity, last: l.now()}
	l.buckets[key] = b
	return b, nil
}

// Acquire blocks until a token is available for the platform, then
// consumes it. Admission is FIFO per platform: each caller reserves the
// next slot in the refill schedule under the bucket lock. Returns early
// with ctx.Err() if the context is cancelled, returning the reservation.
func (l *Limiter) Acquire(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := l.bucketFor(key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	now := l.now()
	b.refill(now)
	b.tokens--
	wait := time.Duration(0)
	if b.tokens < 0 {
		wait = time.Duration(-b.tokens / b.cfg.RefillPerSecond * float64(time.Second))
	}
	b.mu.Unlock()

	if wait == 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		// Hand the unused reservation back so later callers don't pay
		// for an aborted request.
		b.mu.Lock()
		b.refill(l.now())
		if b.tokens < b.cfg.Capacity {
			b.tokens++
		}
		b.mu.Unlock()
		return ctx.Err()
	}
}

// Allow consumes a token if one is immediately available. It never blocks.
func (l *Limiter) Allow(key string) bool {
	b, err := l.bucketFor(key)
	if err != nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(l.now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Tokens reports the current token count for a platform (diagnostics).
func (l *Limiter) Tokens(key string) float64 {
	b, err := l.bucketFor(key)
	if err != nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(l.now())
	return b.tokens
}

// refill advances the bucket to now. Caller holds b.mu. The cap never
// exceeds Capacity, so a platform can never burst past its configured
// window regardless of how long the bucket sat idle.
func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.cfg.RefillPerSecond
	if b.tokens > b.cfg.Capacity {
		b.tokens = b.cfg.Capacity
	}
	b.last = now
}
