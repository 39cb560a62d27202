package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultMaxAttempts is the default number of attempts before giving up.
	DefaultMaxAttempts = 3

	// DefaultDelay is the fixed delay between failed attempts.
	DefaultDelay = 1 * time.Second

	// maxDelay caps the exponential backoff delay.
	maxDelay = 10 * time.Second

	// jitterFraction is the maximum fraction of the delay added as jitter.
	jitterFraction = 0.25
)

// Backoff returns the delay to wait after the given failed attempt (0-indexed).
type Backoff func(attempt int) time.Duration

// Linear waits the same fixed delay after every failed attempt.
func Linear(delay time.Duration) Backoff {
	return func(int) time.Duration { return delay }
}

// Exponential doubles base after every failed attempt, capped at 10s, with up
// to 25% jitter. The progression is 1s, 2s, 4s, ... for a 1s base.
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		attempt = min(max(attempt, 0), 30)
		delay := time.Duration(math.Pow(2, float64(attempt))) * base
		if delay > maxDelay || delay <= 0 {
			delay = maxDelay
		}
		jitter := time.Duration(float64(delay) * jitterFraction * rand.Float64())
		return delay + jitter
	}
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Policy configures Do. Zero values fall back to DefaultMaxAttempts, a
// Linear(DefaultDelay) backoff and Sleep.
type Policy struct {
	MaxAttempts int
	Backoff     Backoff
	Sleep       Sleeper
}

// Pause is returned by an operation that wants to be called again after
// Wait without the call counting as a failed attempt. Rate limit responses
// use it.
type Pause struct {
	Wait time.Duration
	Err  error
}

func (p *Pause) Error() string {
	if p.Err == nil {
		return fmt.Sprintf("paused for %s", p.Wait)
	}
	return fmt.Sprintf("paused for %s: %v", p.Wait, p.Err)
}

func (p *Pause) Unwrap() error { return p.Err }

// Do calls fn until it succeeds or MaxAttempts calls have failed, sleeping
// between failures according to the policy's backoff. A *Pause returned by fn
// is honoured with a sleep of its own and does not consume an attempt. The
// last error is returned when all attempts fail.
func Do(ctx context.Context, p Policy, fn func() error) error {
	p = p.withDefaults()

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}

		var pause *Pause
		if errors.As(err, &pause) {
			if err := p.Sleep(ctx, pause.Wait); err != nil {
				return err
			}
			continue
		}

		failures++
		if failures >= p.MaxAttempts {
			return err
		}
		if err := p.Sleep(ctx, p.Backoff(failures-1)); err != nil {
			return err
		}
	}
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Backoff == nil {
		p.Backoff = Linear(DefaultDelay)
	}
	if p.Sleep == nil {
		p.Sleep = Sleep
	}
	return p
}
