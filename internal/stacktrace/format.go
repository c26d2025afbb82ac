package stacktrace

import (
	"fmt"
	"runtime"
	"strings"
)

// Synthetic builds a one-frame stack for failures reported without one.
//
// The result parses to exactly one frame pointing at source:line:column.
func Synthetic(message, source string, line, column int) string {
	return fmt.Sprintf("Error: %s\n    at %s:%d:%d", message, source, line, column)
}

// FormatCallers renders Go program counters as "at" stack text.
//
// header becomes the first (message) line. Go frames carry no column, so
// column 0 is written for every frame. Runtime-internal frames are skipped.
func FormatCallers(header string, pcs []uintptr) string {
	var sb strings.Builder
	sb.WriteString(firstLine(header))

	if len(pcs) == 0 {
		return sb.String()
	}

	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&sb, "\n    at %s (%s:%d:0)", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// Callers captures the calling goroutine's stack, skipping skip frames
// above the caller of Callers.
func Callers(skip int) []uintptr {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

// firstLine collapses a multi-line header so it stays the message line.
func firstLine(header string) string {
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		return header[:i]
	}
	return header
}
