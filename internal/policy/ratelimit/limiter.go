// Package ratelimit implements the randomized request spacing applied before
// every outbound request, plus an optional global requests-per-second ceiling.
package ratelimit

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/time/rate"

	"github.com/hariprasad9910/Anti-Viral-Compunds-Retrival/internal/metrics"
)

// Config holds throttle configuration. MinDelay/MaxDelay bound the uniform
// random wait applied per request; MaxRPS, when > 0, adds a token-bucket
// ceiling shared across all workers.
type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	MaxRPS   float64
}

// Jittered spaces outbound requests by a random delay drawn uniformly from
// [MinDelay, MaxDelay]. Randomized spacing defeats trivial pattern detection
// on the remote service. Safe for concurrent use.
type Jittered struct {
	min     time.Duration
	span    time.Duration
	ceiling *rate.Limiter
}

// New builds a Jittered throttler from cfg. A zero config yields a throttler
// that never waits.
func New(cfg Config) *Jittered {
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	j := &Jittered{
		min:  cfg.MinDelay,
		span: cfg.MaxDelay - cfg.MinDelay,
	}
	if cfg.MaxRPS > 0 {
		j.ceiling = rate.NewLimiter(rate.Limit(cfg.MaxRPS), 1)
	}
	return j
}

// Wait blocks the calling worker for the randomized delay, respecting the
// context. Applied once per request attempt; retry backoff is layered on top
// by the fetcher.
func (j *Jittered) Wait(ctx context.Context) error {
	if j.ceiling != nil {
		if err := j.ceiling.Wait(ctx); err != nil {
			return fmt.Errorf("rate ceiling wait: %w", err)
		}
	}
	delay := j.min + randomDuration(j.span)
	if delay <= 0 {
		return ctx.Err()
	}
	start := time.Now()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("throttle wait canceled: %w", ctx.Err())
	case <-timer.C:
		metrics.ObserveThrottleDelay(time.Since(start))
		return nil
	}
}

func randomDuration(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit) + 1)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
