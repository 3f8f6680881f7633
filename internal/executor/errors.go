package executor

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// FailureKind classifies why a step failed.
type FailureKind int

const (
	// ResolutionTimeout means no candidate selector matched within budget.
	ResolutionTimeout FailureKind = iota
	// NavigationFailure means the page never reached a loaded state.
	NavigationFailure
	// ActionFailure means an interaction such as click or scroll raised mid-step.
	ActionFailure
	// AssertionFailure means the terminal state did not match expectation.
	AssertionFailure
)

// String returns the string representation of FailureKind.
func (k FailureKind) String() string {
	switch k {
	case ResolutionTimeout:
		return "resolution timeout"
	case NavigationFailure:
		return "navigation failure"
	case ActionFailure:
		return "action failure"
	case AssertionFailure:
		return "assertion failure"
	default:
		return "unknown"
	}
}

// StepError represents a failure inside a flow step.
// It includes context about which step failed, why, and when.
type StepError struct {
	Kind      FailureKind // Failure classification
	Step      string      // Name of the step that failed
	Message   string      // Human-readable error message
	Err       error       // Underlying error (optional)
	Timestamp time.Time   // When the error occurred
}

// NewStepError creates a new StepError with the current timestamp.
func NewStepError(kind FailureKind, step, msg string, err error) *StepError {
	return &StepError{
		Kind:      kind,
		Step:      step,
		Message:   msg,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface for StepError.
// The message leads so report error logs read naturally.
func (e *StepError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *StepError) Unwrap() error {
	return e.Err
}

func isKind(err error, kind FailureKind) bool {
	if err == nil {
		return false
	}
	var se *StepError
	return errors.As(err, &se) && se.Kind == kind
}

// IsResolutionTimeout checks if the error is or wraps a resolution timeout.
func IsResolutionTimeout(err error) bool {
	return isKind(err, ResolutionTimeout)
}

// IsNavigationFailure checks if the error is or wraps a navigation failure.
func IsNavigationFailure(err error) bool {
	return isKind(err, NavigationFailure)
}

// IsActionFailure checks if the error is or wraps an action failure.
func IsActionFailure(err error) bool {
	return isKind(err, ActionFailure)
}

// IsAssertionFailure checks if the error is or wraps an assertion failure.
func IsAssertionFailure(err error) bool {
	return isKind(err, AssertionFailure)
}

// KindOf returns the failure kind of err and whether it carries one.
func KindOf(err error) (FailureKind, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return 0, false
}
