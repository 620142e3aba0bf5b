// Package throttle provides the request pacing primitives shared by the
// rate-limited API clients: a single-flight minimum-interval limiter and a
// capped exponential backoff schedule for 429 retries.
package throttle

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultMinInterval is the conservative spacing used when a caller does
	// not configure one. CoinGecko's unauthenticated tier tolerates roughly
	// 10-30 requests per minute.
	DefaultMinInterval = 6 * time.Second

	baseBackoff = 2 * time.Second
	maxBackoff  = 60 * time.Second
)

// Limiter enforces a minimum wall-clock gap between the starts of consecutive
// requests. It carries its own last-request timestamp rather than relying on
// package-level state, so independent clients never pace each other unless
// they share the same Limiter deliberately.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
	nowFn       func() time.Time
	sleepFn     func(context.Context, time.Duration) error
}

// NewLimiter constructs a limiter with the given minimum inter-request gap.
// A non-positive interval falls back to DefaultMinInterval.
func NewLimiter(minInterval time.Duration) *Limiter {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &Limiter{
		minInterval: minInterval,
		nowFn:       time.Now,
		sleepFn:     sleepCtx,
	}
}

// Wait blocks until the configured gap since the previous request start has
// elapsed, then records the new request start. It returns early with the
// context error when ctx is cancelled. Only one caller proceeds at a time;
// the limiter is inherently single-flight.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lastRequest.IsZero() {
		if gap := l.minInterval - l.nowFn().Sub(l.lastRequest); gap > 0 {
			if err := l.sleepFn(ctx, gap); err != nil {
				return err
			}
		}
	}
	l.lastRequest = l.nowFn()
	return nil
}

// MinInterval reports the configured spacing.
func (l *Limiter) MinInterval() time.Duration {
	return l.minInterval
}

// Backoff returns the retry delay for the given attempt (0-based):
// baseBackoff * 2^attempt, capped at maxBackoff.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		return baseBackoff
	}
	// 2^30s already exceeds the cap by orders of magnitude.
	if attempt > 30 {
		return maxBackoff
	}
	d := baseBackoff * time.Duration(1<<uint(attempt))
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepCtx(ctx, d)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
