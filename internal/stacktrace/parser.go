package stacktrace

import (
	"regexp"
	"strings"
)

// anonymous is the function name used when a frame line carries none.
const anonymous = "anonymous"

// frameRe matches "at fn (path:line:col)" and "at path:line:col".
var frameRe = regexp.MustCompile(`at\s+(?:(.+?)\s+\()?(.+?):(\d+):(\d+)\)?`)

// Frame is one parsed call site.
//
// Line and Column are kept as text; they come straight from the stack and
// are only ever displayed.
type Frame struct {
	FunctionName string `json:"function"`
	FileName     string `json:"file"`
	FullPath     string `json:"full_path"`
	Line         string `json:"line"`
	Column       string `json:"column"`
	OriginalLine string `json:"original"`
}

// Parse extracts frames from raw stack text.
//
// The first line is the error's message line and is skipped. Remaining lines
// that do not match a frame pattern are dropped, so the result may be shorter
// than the input. Parse is pure: the same input always yields the same frames.
func Parse(raw string) []Frame {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return nil
	}

	frames := make([]Frame, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if f, ok := parseLine(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// parseLine parses a single candidate frame line.
func parseLine(line string) (Frame, bool) {
	m := frameRe.FindStringSubmatch(line)
	if m == nil {
		return Frame{}, false
	}

	fn := strings.TrimSpace(m[1])
	if fn == "" {
		fn = anonymous
	}

	return Frame{
		FunctionName: fn,
		FileName:     baseName(m[2]),
		FullPath:     m[2],
		Line:         m[3],
		Column:       m[4],
		OriginalLine: strings.TrimSpace(line),
	}, true
}

// baseName returns the segment after the last "/", or the whole path.
func baseName(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return path
}
