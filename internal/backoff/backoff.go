// Package backoff implements bounded exponential backoff for calls to
// external services (embedding, search, generation). Retries are capped
// by attempt count and respect context cancellation.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Policy configures a retry loop.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Initial is the delay before the second attempt.
	Initial time.Duration

	// Max caps the delay between attempts.
	Max time.Duration

	// Multiplier grows the delay after each attempt.
	Multiplier float64
}

// Default returns the policy applied at external call sites.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Initial:     200 * time.Millisecond,
		Max:         5 * time.Second,
		Multiplier:  2.0,
	}
}

// Retry runs op until it succeeds, the policy is exhausted, or ctx is
// cancelled. Only errors for which retryable returns true are retried;
// other errors abort immediately. The last error is returned unwrapped
// so callers can classify it with errors.Is.
func Retry(ctx context.Context, p Policy, retryable func(error) bool, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	delay := p.Initial
	var err error

	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts || !retryable(err) {
			return err
		}
		if ctxErr := sleep(ctx, jitter(delay)); ctxErr != nil {
			return ctxErr
		}
		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.Max > 0 && delay > p.Max {
			delay = p.Max
		}
	}
}

// jitter spreads the delay over [delay/2, delay) to avoid thundering
// herds when many workers back off at once.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
