package httputil

import (
	"context"
	"errors"
	"time"
)

// RetryableError marks an error as transient. The registry and artifact
// clients wrap network failures, 5xx responses, and 429 rate limits in
// this type; [Retry] re-attempts only errors carrying it and fails fast
// on everything else (4xx responses, parse errors).
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times, doubling delay between tries.
// Errors not wrapped in [RetryableError] abort immediately. A cancelled
// context aborts the backoff wait and returns ctx.Err(); the final
// transient error is returned once attempts are exhausted.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		if !errors.As(err, new(*RetryableError)) {
			return err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}
