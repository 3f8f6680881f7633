package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestNewStepError verifies StepError creation and Error() formatting.
func TestNewStepError(t *testing.T) {
	tests := []struct {
		name     string
		kind     FailureKind
		step     string
		message  string
		err      error
		wantText string
	}{
		{
			name:     "message only",
			kind:     AssertionFailure,
			step:     "Verify redirect",
			message:  "Did not redirect to simpleswap.io",
			wantText: "Did not redirect to simpleswap.io",
		},
		{
			name:     "wrapped cause",
			kind:     ActionFailure,
			step:     "Select size",
			message:  "Error selecting size",
			err:      errors.New("node detached"),
			wantText: "Error selecting size: node detached",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stepErr := NewStepError(tt.kind, tt.step, tt.message, tt.err)

			if stepErr.Step != tt.step {
				t.Errorf("Step = %q, want %q", stepErr.Step, tt.step)
			}
			if stepErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", stepErr.Kind, tt.kind)
			}
			if stepErr.Timestamp.IsZero() {
				t.Error("expected non-zero Timestamp")
			}
			if got := stepErr.Error(); got != tt.wantText {
				t.Errorf("Error() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

// TestStepErrorWrapping verifies errors.Is and errors.As through StepError.
func TestStepErrorWrapping(t *testing.T) {
	stepErr := NewStepError(ResolutionTimeout, "Locate primary CTA", "Primary CTA button not found", context.DeadlineExceeded)
	wrapped := fmt.Errorf("flow aborted: %w", stepErr)

	if !errors.Is(wrapped, context.DeadlineExceeded) {
		t.Error("expected errors.Is to find context.DeadlineExceeded")
	}

	var target *StepError
	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to find StepError")
	}
	if target.Step != "Locate primary CTA" {
		t.Errorf("Step = %q, want %q", target.Step, "Locate primary CTA")
	}
}

func TestFailureKindPredicates(t *testing.T) {
	tests := []struct {
		kind  FailureKind
		check func(error) bool
		label string
	}{
		{ResolutionTimeout, IsResolutionTimeout, "resolution timeout"},
		{NavigationFailure, IsNavigationFailure, "navigation failure"},
		{ActionFailure, IsActionFailure, "action failure"},
		{AssertionFailure, IsAssertionFailure, "assertion failure"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			err := fmt.Errorf("outer: %w", NewStepError(tt.kind, "step", "msg", nil))
			if !tt.check(err) {
				t.Errorf("predicate for %s returned false", tt.label)
			}
			if tt.kind.String() != tt.label {
				t.Errorf("String() = %q, want %q", tt.kind.String(), tt.label)
			}
			kind, ok := KindOf(err)
			if !ok || kind != tt.kind {
				t.Errorf("KindOf = (%v, %v), want (%v, true)", kind, ok, tt.kind)
			}
		})
	}

	if IsActionFailure(nil) {
		t.Error("nil error must not classify")
	}
	if IsActionFailure(errors.New("plain")) {
		t.Error("plain error must not classify")
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf must report false for plain errors")
	}
	if !strings.Contains(FailureKind(99).String(), "unknown") {
		t.Error("out of range kind should read unknown")
	}
}
