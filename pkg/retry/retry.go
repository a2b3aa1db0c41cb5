// Package retry provides a small exponential-backoff combinator shared by the
// oracle fetch paths.
package retry

import (
	"context"
	"time"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts. The delay doubles (or grows by Multiplier) after
// every failed attempt, capped at MaxDelay.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultPolicy matches the knobs used by the batch fetch executor: three
// attempts, 500ms initial delay, doubling, capped at 5s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Do runs op until it succeeds, the policy is exhausted, the error is not
// retryable, or ctx is cancelled. The last error is returned. isRetryable nil
// means retry everything.
func Do(ctx context.Context, p Policy, isRetryable func(error) bool, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2.0
	}

	delay := p.InitialDelay
	var err error

	for attempt := 1; ; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.MaxAttempts {
			return err
		}
		if isRetryable != nil && !isRetryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * p.Multiplier)
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
