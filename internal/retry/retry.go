package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Policy controls how often and how patiently an operation is retried.
type Policy struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Jitter spreads each delay by up to this fraction in either direction.
	Jitter float64
	// Retryable reports whether err is worth another attempt. Nil retries
	// everything except context errors.
	Retryable func(error) bool
}

// DefaultPolicy suits short local round trips such as a daemon ping.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:     3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
		Jitter:       0.2,
	}
}

func (p Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, runs out of
// attempts or ctx is done. The last error is wrapped with the operation name.
func Do(ctx context.Context, p Policy, operation string, fn func(context.Context) error) error {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	delay := p.InitialDelay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}
		if attempt >= p.Attempts {
			return fmt.Errorf("%s failed after %d attempts: %w", operation, attempt, err)
		}

		timer := time.NewTimer(jitter(delay, p.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt, errors.Join(ctx.Err(), err))
		case <-timer.C:
		}

		if p.Multiplier > 1 {
			delay = time.Duration(float64(delay) * p.Multiplier)
		}
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}

func jitter(d time.Duration, factor float64) time.Duration {
	if factor <= 0 || d <= 0 {
		return d
	}
	spread := float64(d) * factor
	return time.Duration(float64(d) - spread + rand.Float64()*2*spread)
}
