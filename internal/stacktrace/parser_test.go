package stacktrace

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_EmptyAndMessageOnly(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"message only", "TypeError: boom"},
		{"message with trailing newline", "TypeError: boom\n"},
		{"whitespace", "   \n   \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.raw); len(got) != 0 {
				t.Errorf("Parse(%q) = %v, want empty", tt.raw, got)
			}
		})
	}
}

func TestParse_NamedFrame(t *testing.T) {
	got := Parse("Error: x\n    at foo (bar.ts:12:5)")
	want := []Frame{{
		FunctionName: "foo",
		FileName:     "bar.ts",
		FullPath:     "bar.ts",
		Line:         "12",
		Column:       "5",
		OriginalLine: "at foo (bar.ts:12:5)",
	}}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %+v, want %+v", got, want)
	}
}

func TestParse_AnonymousFrame(t *testing.T) {
	got := Parse("Error: x\n    at bar.ts:12:5")
	if len(got) != 1 {
		t.Fatalf("Parse() returned %d frames, want 1", len(got))
	}
	if got[0].FunctionName != "anonymous" {
		t.Errorf("FunctionName = %q, want %q", got[0].FunctionName, "anonymous")
	}
	if got[0].FileName != "bar.ts" || got[0].Line != "12" || got[0].Column != "5" {
		t.Errorf("frame = %+v, want bar.ts:12:5", got[0])
	}
}

func TestParse_PathNormalization(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantFile string
		wantPath string
	}{
		{
			name:     "url",
			line:     "    at render (http://localhost:3000/static/js/main.chunk.js:120:17)",
			wantFile: "main.chunk.js",
			wantPath: "http://localhost:3000/static/js/main.chunk.js",
		},
		{
			name:     "absolute go path",
			line:     "    at main.handler (/home/dev/app/main.go:42:0)",
			wantFile: "main.go",
			wantPath: "/home/dev/app/main.go",
		},
		{
			name:     "no separator",
			line:     "    at App.tsx:4:1",
			wantFile: "App.tsx",
			wantPath: "App.tsx",
		},
		{
			name:     "trailing separator",
			line:     "    at weird (dir/:1:2)",
			wantFile: "dir/",
			wantPath: "dir/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse("Error\n" + tt.line)
			if len(got) != 1 {
				t.Fatalf("Parse() returned %d frames, want 1", len(got))
			}
			if got[0].FileName != tt.wantFile {
				t.Errorf("FileName = %q, want %q", got[0].FileName, tt.wantFile)
			}
			if got[0].FullPath != tt.wantPath {
				t.Errorf("FullPath = %q, want %q", got[0].FullPath, tt.wantPath)
			}
		})
	}
}

func TestParse_DropsUnmatchedLines(t *testing.T) {
	raw := strings.Join([]string{
		"Error: mixed",
		"    at first (a.js:1:1)",
		"this is not a frame",
		"    at <anonymous>",
		"",
		"    at second (b.js:2:2)",
	}, "\n")

	got := Parse(raw)
	if len(got) != 2 {
		t.Fatalf("Parse() returned %d frames, want 2: %+v", len(got), got)
	}
	if got[0].FunctionName != "first" || got[1].FunctionName != "second" {
		t.Errorf("frames = %+v, want first then second", got)
	}
}

func TestParse_FirstLineNeverAFrame(t *testing.T) {
	// a frame-shaped first line is still the message line
	got := Parse("    at foo (bar.ts:12:5)")
	if len(got) != 0 {
		t.Errorf("Parse() = %v, want empty", got)
	}
}

func TestParse_Order(t *testing.T) {
	raw := "TypeError: Cannot read properties of undefined (reading 'map')\n" +
		"    at List (List.tsx:10:3)\n" +
		"    at App (App.tsx:4:1)"

	got := Parse(raw)
	if len(got) != 2 {
		t.Fatalf("Parse() returned %d frames, want 2", len(got))
	}
	if got[0].FunctionName != "List" || got[0].FileName != "List.tsx" || got[0].Line != "10" || got[0].Column != "3" {
		t.Errorf("frame[0] = %+v", got[0])
	}
	if got[1].FunctionName != "App" || got[1].FileName != "App.tsx" || got[1].Line != "4" || got[1].Column != "1" {
		t.Errorf("frame[1] = %+v", got[1])
	}
}

func TestParse_Idempotent(t *testing.T) {
	raw := "Error: x\n    at a (a.js:1:2)\n    at b.js:3:4\nnoise\n    at c (/x/y/c.js:5:6)"

	first := Parse(raw)
	second := Parse(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Parse() not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestParse_NeverPanics(t *testing.T) {
	inputs := []string{
		"\x00\x01\x02",
		"Error\n at",
		"Error\n at (:::)",
		"Error\n    at foo (bar.ts:x:y)",
		"Error\n    at foo (:12:5)",
		strings.Repeat("\n", 1000),
		"Error\n" + strings.Repeat("at ", 10000),
	}

	for _, in := range inputs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Parse(%q) panicked: %v", in, r)
				}
			}()
			_ = Parse(in)
		}()
	}
}
