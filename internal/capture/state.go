package capture

import (
	"time"

	"github.com/jpalmerr/faultboard/internal/stacktrace"
)

// Channel identifies which failure channel produced an [Error].
type Channel string

const (
	// ChannelRender is a panic raised while the wrapped handler served a request.
	ChannelRender Channel = "render"

	// ChannelScript is an uncaught error reported through the script-error hook.
	ChannelScript Channel = "script"

	// ChannelRejection is an asynchronous failure nobody handled.
	ChannelRejection Channel = "rejection"
)

// String returns the channel name.
func (c Channel) String() string {
	return string(c)
}

// Error is the single in-memory record of the most recent unhandled failure.
type Error struct {
	// ID correlates the capture with its log record.
	ID string `json:"id"`

	// Channel is the failure channel that produced the error.
	Channel Channel `json:"channel"`

	// Message is the human-readable description of the failure.
	Message string `json:"message"`

	// RawStack is the unprocessed stack text. Empty when absent.
	RawStack string `json:"raw_stack,omitempty"`

	// ComponentTrace lists the components active when a render-path failure
	// happened. Display only; never parsed.
	ComponentTrace string `json:"component_trace,omitempty"`

	// CapturedAt is when the failure was captured.
	CapturedAt time.Time `json:"captured_at"`
}

// Frames parses RawStack. The result is recomputed on every call.
func (e Error) Frames() []stacktrace.Frame {
	return stacktrace.Parse(e.RawStack)
}

// Phase is the tag of a [State].
type Phase int

const (
	// PhaseClear means no error has been captured.
	PhaseClear Phase = iota

	// PhaseCollapsed means an error is captured and the overlay is hidden.
	PhaseCollapsed

	// PhaseExpanded means an error is captured and the overlay is shown.
	PhaseExpanded
)

// String returns a lower-case phase name for logs and JSON.
func (p Phase) String() string {
	switch p {
	case PhaseCollapsed:
		return "collapsed"
	case PhaseExpanded:
		return "expanded"
	default:
		return "clear"
	}
}

// State is the value held by a [Store].
//
// A nil Error is the Clear state; Expanded is always false there.
type State struct {
	Error    *Error
	Expanded bool
}

// Phase reports which of the three states s is in.
func (s State) Phase() Phase {
	switch {
	case s.Error == nil:
		return PhaseClear
	case s.Expanded:
		return PhaseExpanded
	default:
		return PhaseCollapsed
	}
}

// Event is an input to [Transition].
type Event interface {
	event()
}

// Failure reports a newly captured error.
type Failure struct {
	Err Error
}

// ExpandRequested is raised by the badge control.
type ExpandRequested struct{}

// CloseRequested is raised by the overlay's Close control.
type CloseRequested struct{}

// KeyPressed carries a key name as reported by the browser (e.g. "Escape").
type KeyPressed struct {
	Key string
}

func (Failure) event()         {}
func (ExpandRequested) event() {}
func (CloseRequested) event()  {}
func (KeyPressed) event()      {}

// EscapeKey is the key that collapses an expanded overlay.
const EscapeKey = "Escape"

// Transition returns the state that follows s after e.
//
// A Failure always replaces the captured error and keeps the current
// visibility. Visibility changes only apply while an error is captured.
// Every other combination returns s unchanged.
func Transition(s State, e Event) State {
	switch ev := e.(type) {
	case Failure:
		captured := ev.Err
		return State{Error: &captured, Expanded: s.Expanded && s.Error != nil}

	case ExpandRequested:
		if s.Phase() == PhaseCollapsed {
			return State{Error: s.Error, Expanded: true}
		}

	case CloseRequested:
		if s.Phase() == PhaseExpanded {
			return State{Error: s.Error, Expanded: false}
		}

	case KeyPressed:
		if ev.Key == EscapeKey && s.Phase() == PhaseExpanded {
			return State{Error: s.Error, Expanded: false}
		}
	}

	return s
}
