package faultboard

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/faultboard/internal/stacktrace"
)

var (
	// ErrAlreadyMounted is returned by [Boundary.Mount] on a mounted boundary.
	ErrAlreadyMounted = errors.New("boundary already mounted")

	// ErrNoHandler is returned by [New] when no application handler is set.
	ErrNoHandler = errors.New("an application handler is required")
)

// PanicError carries a recovered panic value and the stack at the panic site.
type PanicError struct {
	// Value is the value passed to panic.
	Value any

	stack string
}

// newPanicError wraps a recovered value. It must be called directly from the
// deferred function that recovered, so the stack starts at the panic site.
func newPanicError(value any) *PanicError {
	header := fmt.Sprintf("panic: %v", value)
	return &PanicError{
		Value: value,
		stack: stacktrace.FormatCallers(header, stacktrace.Callers(2)),
	}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StackTrace returns the stack text in "at fn (file:line:column)" form.
func (e *PanicError) StackTrace() string {
	return e.stack
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// stackTracer is implemented by errors that carry their own stack text.
type stackTracer interface {
	StackTrace() string
}

// messageOf returns the human-readable message of err.
func messageOf(err error) string {
	var pe *PanicError
	if errors.As(err, &pe) {
		return fmt.Sprint(pe.Value)
	}
	return err.Error()
}

// describe returns the message and stack text of err. When a method of err
// panics, as it does on a typed nil pointer, the message is err's type name.
func describe(err error) (message, stack string) {
	defer func() {
		if recover() != nil {
			message, stack = fmt.Sprintf("%T", err), ""
		}
	}()
	return messageOf(err), stackOf(err)
}

// stackOf returns the stack text err carries, or "" when it has none.
func stackOf(err error) string {
	var st stackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return ""
}
