package faultboard

import (
	"github.com/jpalmerr/faultboard/internal/capture"
	"github.com/jpalmerr/faultboard/internal/stacktrace"
)

// CapturedError is the single in-memory record of the most recent unhandled
// failure. A new failure always replaces it.
type CapturedError = capture.Error

// StackFrame is one parsed call site of a [CapturedError]'s raw stack.
type StackFrame = stacktrace.Frame

// State is the boundary's capture state: no error (clear), or an error with
// the overlay collapsed or expanded.
type State = capture.State

// Phase is the tag of a [State].
type Phase = capture.Phase

// Channel identifies which failure channel produced a [CapturedError].
type Channel = capture.Channel

const (
	// PhaseClear means nothing has been captured since the last reload.
	PhaseClear = capture.PhaseClear

	// PhaseCollapsed means an error is captured and only the badge shows.
	PhaseCollapsed = capture.PhaseCollapsed

	// PhaseExpanded means an error is captured and the overlay shows.
	PhaseExpanded = capture.PhaseExpanded
)

const (
	// ChannelRender marks a panic raised by the wrapped handler.
	ChannelRender = capture.ChannelRender

	// ChannelScript marks an uncaught error from a goroutine or the browser.
	ChannelScript = capture.ChannelScript

	// ChannelRejection marks an asynchronous failure nobody handled.
	ChannelRejection = capture.ChannelRejection
)

// ParseStack parses raw stack text into frames.
//
// The first line is treated as the message line and skipped. Lines that do
// not look like "at fn (path:line:column)" or "at path:line:column" are
// dropped. ParseStack never panics.
func ParseStack(raw string) []StackFrame {
	return stacktrace.Parse(raw)
}
