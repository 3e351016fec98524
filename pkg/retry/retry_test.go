package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "xkcdcrawl/pkg/errors"
	"xkcdcrawl/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
		{0, 0, "Zeroth attempt"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delays[backoff.NextDelay(2)] = true
	}

	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "connection reset"}
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if errs.TypeOf(err) != errs.ErrorTypeNetwork {
		t.Errorf("Expected the last transient error to be wrapped, got %v", err)
	}
}

func TestRetryNotFoundShortCircuits(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return &errs.Error{Type: errs.ErrorTypeNotFound, Message: "comic does not exist", Code: 404}
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected the not-found error to be returned")
	}
	if attempts != 1 {
		t.Errorf("Not-found must not be retried: expected 1 attempt, got %d", attempts)
	}
	if !errs.IsNotFound(err) {
		t.Errorf("Expected the original not-found error, got %v", err)
	}
}

func TestRetryBackoffTiming(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "timeout"}
	}

	base := 20 * time.Millisecond
	cfg := &Config{
		MaxAttempts: 3,
		Backoff: &ExponentialBackoff{
			BaseDelay:  base,
			MaxDelay:   time.Second,
			Multiplier: 2.0,
		},
		RetryIf: DefaultRetryIf,
		Context: context.Background(),
		Logger:  logger.NewNop(),
	}

	start := time.Now()
	err := Do(op, cfg)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected failure")
	}
	if attempts != 3 {
		t.Fatalf("Expected 3 attempts, got %d", attempts)
	}
	// Sleeps after attempts 1, 2 and 3: base*(1+2+4)
	expected := 7 * base
	if elapsed < expected {
		t.Errorf("Expected total backoff of at least %v, elapsed %v", expected, elapsed)
	}
	if elapsed > expected+500*time.Millisecond {
		t.Errorf("Backoff took far longer than expected: %v", elapsed)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	op := func() error {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "timeout"}
	}

	cfg := &Config{
		MaxAttempts: 10,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		RetryIf:     DefaultRetryIf,
		Context:     ctx,
		Logger:      logger.NewNop(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected retrying to stop after cancellation, got %d attempts", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(nil) {
		t.Error("nil error must not be retried")
	}
	if !DefaultRetryIf(errors.New("some unknown error")) {
		t.Error("untyped errors default to retryable")
	}
	if DefaultRetryIf(context.Canceled) {
		t.Error("context cancellation must not be retried")
	}
	if DefaultRetryIf(&errs.Error{Type: errs.ErrorTypePersistence, Message: "permission denied"}) {
		t.Error("persistence failures must not be retried")
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", &errs.Error{Type: errs.ErrorTypeServerError, Message: "bad gateway", Code: 502}
		}
		return "payload", nil
	}, &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != "payload" {
		t.Errorf("Expected result %q, got %q", "payload", result)
	}
}

func TestRetrierReuse(t *testing.T) {
	retrier := NewRetrier(&Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	})

	attempts := 0
	err := retrier.Do(func() error {
		attempts++
		if attempts < 2 {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "connection reset"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}

	// The same retrier is reusable; the first run's state must not leak
	attempts = 0
	if err := retrier.Do(func() error { attempts++; return nil }); err != nil {
		t.Fatalf("Expected immediate success, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetrierWithContext(t *testing.T) {
	retrier := NewRetrier(&Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 50 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
		Logger:      logger.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := retrier.WithContext(ctx).Do(func() error {
		attempts++
		return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "timeout"}
	})
	if err == nil {
		t.Fatal("Expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected retry loop to stop after 1 attempt, got %d", attempts)
	}

	// The original retrier keeps its own context
	if retrier.config.Context != context.Background() {
		t.Error("WithContext must not mutate the original retrier")
	}
}
