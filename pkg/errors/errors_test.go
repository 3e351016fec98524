package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		retryable bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeServerError, true},
		{ErrorTypeParsing, true},
		{ErrorTypeNotFound, false},
		{ErrorTypePersistence, false},
		{ErrorTypeUnknown, false},
	}

	for _, test := range tests {
		if got := IsRetryable(test.errorType); got != test.retryable {
			t.Errorf("IsRetryable(%s) = %v, want %v", test.errorType, got, test.retryable)
		}
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	retryable := []int{0, 429, 500, 502, 503, 504, 599}
	for _, code := range retryable {
		if !IsRetryableStatusCode(code) {
			t.Errorf("expected status %d to be retryable", code)
		}
	}

	notRetryable := []int{200, 301, 400, 401, 403, 404}
	for _, code := range notRetryable {
		if IsRetryableStatusCode(code) {
			t.Errorf("expected status %d not to be retryable", code)
		}
	}
}

func TestTypeOf(t *testing.T) {
	err := New(ErrorTypeNotFound, "comic 404 not found", 404)
	if TypeOf(err) != ErrorTypeNotFound {
		t.Errorf("TypeOf = %s, want %s", TypeOf(err), ErrorTypeNotFound)
	}

	wrapped := fmt.Errorf("fetching comic: %w", err)
	if TypeOf(wrapped) != ErrorTypeNotFound {
		t.Error("TypeOf should see through error wrapping")
	}

	if TypeOf(errors.New("plain")) != ErrorTypeUnknown {
		t.Error("TypeOf should report unknown for untyped errors")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(New(ErrorTypeNotFound, "gone", 404)) {
		t.Error("expected IsNotFound to be true for a not_found error")
	}
	if IsNotFound(New(ErrorTypeNetwork, "timeout", 0)) {
		t.Error("expected IsNotFound to be false for a network error")
	}
	if IsNotFound(nil) {
		t.Error("expected IsNotFound to be false for nil")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrorTypePersistence, "failed to save image", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to match its cause")
	}
	if err.Error() != "persistence error: failed to save image" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestErrorMessageWithCode(t *testing.T) {
	err := New(ErrorTypeServerError, "bad gateway", 502)
	expected := "server_error error (code 502): bad gateway"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
