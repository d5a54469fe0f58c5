// Package httpretry executes operations against external platform APIs
// with bounded retries, exponential backoff, and jitter.
//
// Errors are classified by what they implement, not by concrete type, so
// the package stays independent of any platform client:
//
//   - RetryAfter() time.Duration  → rate limited; the advertised interval
//     is honored exactly, bypassing exponential backoff
//   - Transient() bool            → retried with backoff + jitter
//   - anything else               → fatal; exactly one attempt
package httpretry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"time"
)

// Operation is one attempt against an external API.
type Operation func(ctx context.Context) error

// Policy holds the retry schedule. The zero value is not usable; use
// NewPolicy or fill every field.
type Policy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // backoff for the first retry
	Multiplier  float64       // backoff growth factor
	MaxDelay    time.Duration // backoff cap

	// sleep and jitter are test seams.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(d time.Duration) time.Duration
}

// NewPolicy returns the standard schedule: 5 attempts, 1s base, doubling,
// capped at 60s.
func NewPolicy() *Policy {
	return &Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Multiplier:  2,
		MaxDelay:    60 * time.Second,
		sleep:       sleepCtx,
		jitter:      fullJitter,
	}
}

// ExhaustedError wraps the last error after all retry attempts failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("httpretry: gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Execute runs op until it succeeds, fails fatally, or the attempt budget
// is spent. Rate-limited errors sleep out their advertised interval;
// transient errors back off exponentially with full jitter. Backoff never
// outlives the context.
func (p *Policy) Execute(ctx context.Context, op Operation) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return &ExhaustedError{Attempts: attempt - 1, Err: lastErr}
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		delay, retryable := p.classify(err, attempt)
		if !retryable {
			return err
		}
		if err := p.doSleep(ctx, delay); err != nil {
			return &ExhaustedError{Attempts: attempt, Err: lastErr}
		}
	}
	return &ExhaustedError{Attempts: p.MaxAttempts, Err: lastErr}
}

// ExecuteIdempotent is Execute for mutating operations. Retries only run
// when the adapter declares the mutation safe to repeat ("set budget to
// X" is, "increment spend by X" is not); unsafe mutations get exactly one
// attempt regardless of how the failure classifies.
func (p *Policy) ExecuteIdempotent(ctx context.Context, safeToRetry bool, op Operation) error {
	if safeToRetry {
		return p.Execute(ctx, op)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return op(ctx)
}

// classify returns how long to wait before the next attempt and whether a
// retry is warranted at all.
func (p *Policy) classify(err error, attempt int) (time.Duration, bool) {
	var ra interface{ RetryAfter() time.Duration }
	if errors.As(err, &ra) {
		return ra.RetryAfter(), true
	}
	if isTransient(err) {
		return p.doJitter(p.backoff(attempt)), true
	}
	return 0, false
}

func (p *Policy) doSleep(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	return sleepCtx(ctx, d)
}

func (p *Policy) doJitter(d time.Duration) time.Duration {
	if p.jitter != nil {
		return p.jitter(d)
	}
	return fullJitter(d)
}

// backoff returns BaseDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p *Policy) backoff(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

func isTransient(err error) bool {
	var tr interface{ Transient() bool }
	if errors.As(err, &tr) {
		return tr.Transient()
	}
	// Raw network failures that never produced a platform response.
	var netErr net.Error
	return errors.As(err, &netErr)
}

// fullJitter picks a random delay in (0, d], with a floor to avoid
// busy-looping on very small bases.
func fullJitter(d time.Duration) time.Duration {
	j := time.Duration(rand.Float64() * float64(d))
	if j < 50*time.Millisecond {
		j = 50 * time.Millisecond
	}
	return j
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
