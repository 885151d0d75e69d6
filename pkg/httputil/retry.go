package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// TransientError marks a failure worth another attempt. After, when set, is
// the wait the server asked for (Retry-After) and replaces the backoff step.
type TransientError struct {
	Err   error
	After time.Duration
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient marks err as retryable. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err, or anything it wraps, is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Backoff is a retry policy: Attempts tries, sleeping Delay after the first
// failure and doubling up to MaxDelay.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultBackoff is the policy used by [NewClient].
var DefaultBackoff = Backoff{Attempts: DefaultAttempts, Delay: DefaultDelay, MaxDelay: 8 * DefaultDelay}

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. fn sees the zero-based attempt number. A cancelled ctx
// stops the wait and its error is returned.
func (b Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	wait := b.Delay
	var err error
	for attempt := 0; attempt < max(b.Attempts, 1); attempt++ {
		if attempt > 0 {
			if werr := sleep(ctx, b.pause(err, wait)); werr != nil {
				return werr
			}
			wait = b.next(wait)
		}
		if err = fn(attempt); err == nil || !IsTransient(err) {
			return err
		}
	}
	return err
}

// pause picks the sleep before the next attempt: the server's hint when one
// came with err, else the backoff step. Both are capped by MaxDelay.
func (b Backoff) pause(err error, step time.Duration) time.Duration {
	var te *TransientError
	if errors.As(err, &te) && te.After > 0 {
		step = te.After
	}
	if b.MaxDelay > 0 && step > b.MaxDelay {
		return b.MaxDelay
	}
	return step
}

func (b Backoff) next(d time.Duration) time.Duration {
	d *= 2
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
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

// retryAfter parses a Retry-After header given in seconds. HTTP dates and
// malformed values yield zero.
func retryAfter(h http.Header) time.Duration {
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
