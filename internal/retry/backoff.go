// Package retry provides exponential backoff for the connect step of
// an exchange.  Only establishing a connection is ever retried; bytes
// that have been written are never resent.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// PermanentError stops [Backoff.Do] at the attempt that returned it.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as final.  Do returns the unwrapped err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff is an exponential retry schedule.  Zero fields take the
// defaults of 1s initial delay, 30s cap, factor 2 and one attempt.
type Backoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int  // total tries, first one included
	Jitter       bool // spread each wait by up to 25% either way

	// OnRetry runs before each wait with the attempt that just failed.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// ForConnect returns the backoff used for dialling: attempts tries,
// starting at delay and doubling up to 30s.
func ForConnect(attempts int, delay time.Duration) *Backoff {
	if attempts < 1 {
		attempts = 1
	}
	return &Backoff{
		InitialDelay: delay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  attempts,
		Jitter:       true,
	}
}

func (b *Backoff) withDefaults() Backoff {
	p := *b
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 30 * time.Second
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	return p
}

// Do calls fn, counting attempts from 1, until it returns nil or a
// [Permanent] error, the budget runs out, or ctx ends.  A one-attempt
// budget returns fn's error as is.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	p := b.withDefaults()
	delay := p.InitialDelay

	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return errors.Unwrap(err)
		case attempt >= p.MaxAttempts && p.MaxAttempts == 1:
			return err
		case attempt >= p.MaxAttempts:
			return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, err)
		}

		wait := delay
		if p.Jitter {
			wait = addJitter(delay)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}
		if cerr := sleep(ctx, wait); cerr != nil {
			return fmt.Errorf("retry cancelled: %w", errors.Join(cerr, err))
		}

		delay = min(time.Duration(float64(delay)*p.Multiplier), p.MaxDelay)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// addJitter scales d by a random factor in [0.75, 1.25), never going
// below a millisecond.
func addJitter(d time.Duration) time.Duration {
	f := 0.75 + rand.Float64()/2 //nolint:gosec
	return max(time.Duration(float64(d)*f), time.Millisecond)
}
