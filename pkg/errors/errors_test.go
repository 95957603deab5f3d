package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidLayer, "test message: %s", "value")

	if err.Code != ErrCodeInvalidLayer {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidLayer)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_LAYER: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInvalidFormat, cause, "failed to parse")

	if err.Code != ErrCodeInvalidFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidFormat)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidNetwork, "test"),
			code:     ErrCodeInvalidNetwork,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidNetwork, "test"),
			code:     ErrCodeInternal,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeInvalidFormat, New(ErrCodeInvalidLayer, "inner"), "outer"),
			code:     ErrCodeInvalidFormat,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidNetwork,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidNetwork,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidUtilDrop, "out of range")); got != ErrCodeInvalidUtilDrop {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeInvalidUtilDrop)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidLayer, "bad layer")); got != "bad layer" {
		t.Errorf("UserMessage() = %v, want %v", got, "bad layer")
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %v, want %v", got, "plain")
	}
}

func TestIsStructural(t *testing.T) {
	if !IsStructural(New(ErrCodeStructureCycle, "cycle")) {
		t.Error("IsStructural(cycle) = false, want true")
	}
	if !IsStructural(New(ErrCodeStructureUnreachable, "unreachable")) {
		t.Error("IsStructural(unreachable) = false, want true")
	}
	if IsStructural(New(ErrCodeInvalidNetwork, "config")) {
		t.Error("IsStructural(config) = true, want false")
	}
}
