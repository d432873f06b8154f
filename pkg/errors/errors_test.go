package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrorTypeAuth, 401, "token rejected for @%s", "someuser")
	want := "auth error (code 401): token rejected for @someuser"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorUnwrapsThroughFmt(t *testing.T) {
	inner := New(ErrorTypeRateLimit, 429, "slow down")
	wrapped := fmt.Errorf("fetching timeline: %w", inner)

	var typed *Error
	if !stderrors.As(wrapped, &typed) {
		t.Fatal("expected errors.As to find *Error")
	}
	if typed.Type != ErrorTypeRateLimit {
		t.Errorf("unwrapped type = %s, want %s", typed.Type, ErrorTypeRateLimit)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeParsing, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.errType); got != tt.want {
			t.Errorf("IsRetryable(%s) = %v, want %v", tt.errType, got, tt.want)
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

	fatal := []int{401, 403, 404, 400}
	for _, code := range fatal {
		if IsRetryableStatusCode(code) {
			t.Errorf("expected status %d to not be retryable", code)
		}
	}
}
