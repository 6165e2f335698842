package booking

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrValidation       = errors.New("validation failed")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNetwork          = errors.New("network error")
)

// JourneyField marks a FieldError that belongs to the journey step.
const JourneyField = -1

// FieldError is a single failed rule, attached to a form field.
type FieldError struct {
	Passenger int    // passenger index, or JourneyField
	Field     string // e.g. "train_id", "phone"
	Message   string
}

func (f FieldError) String() string {
	if f.Passenger == JourneyField {
		return fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return fmt.Sprintf("passenger %d %s: %s", f.Passenger+1, f.Field, f.Message)
}

// ValidationError reports why a step cannot be left.
type ValidationError struct {
	Step   Step
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s step is incomplete: %s", e.Step, strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// For returns the messages recorded for one field.
func (e *ValidationError) For(passenger int, field string) []string {
	var out []string
	for _, f := range e.Fields {
		if f.Passenger == passenger && f.Field == field {
			out = append(out, f.Message)
		}
	}
	return out
}

// InvalidOperationError is returned for edits the wizard refuses to make.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidOperation) hold.
func (e *InvalidOperationError) Is(target error) bool { return target == ErrInvalidOperation }

func invalidOp(op, format string, args ...any) error {
	return &InvalidOperationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// NetworkError wraps a failed call to the reservation service: either the
// transport failed (Err set) or the service answered with a non-2xx status.
type NetworkError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s %s", e.Op, e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " returned %d", e.StatusCode)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrNetwork) hold.
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// Retryable reports whether repeating the call could succeed: transport
// failures, server errors, 408 and 429.
func (e *NetworkError) Retryable() bool {
	switch {
	case e.StatusCode == 0:
		return isTransport(e.Err)
	case e.StatusCode >= 500, e.StatusCode == 408, e.StatusCode == 429:
		return true
	}
	return false
}

// isTransport reports whether err came from the connection rather than from
// building the request. context.DeadlineExceeded satisfies net.Error.
func isTransport(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	var nErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &nErr)
}
