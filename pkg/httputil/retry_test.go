package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("404 not found")

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("Should return permanent error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry permanent error: %d", calls)
	}
}

func TestRetryRecoversFromTransientError(t *testing.T) {
	transient := errors.New("connection reset")

	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: transient}
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("Should try three times: %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	transient := errors.New("503 unavailable")

	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: transient}
	})
	if !errors.Is(err, transient) {
		t.Errorf("Should surface last transient error: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should stop after two attempts: %d", calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Minute, func() error {
		return &RetryableError{Err: errors.New("timeout")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRetryableErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := &RetryableError{Err: inner}

	if !errors.Is(wrapped, inner) {
		t.Error("Unwrap should expose the inner error")
	}
	if wrapped.Error() != inner.Error() {
		t.Errorf("Error message should be preserved: %s", wrapped.Error())
	}
}
