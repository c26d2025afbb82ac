// Package stacktrace turns unstructured stack text into structured frames.
//
// This package is internal to FaultBoard. It understands the
// "    at fn (path:line:column)" family of stack lines emitted by browser
// JavaScript engines, and renders Go runtime frames into the same text so a
// single parser serves every failure channel.
//
// Parsing is deliberately lenient: lines that do not look like a frame are
// dropped rather than reported, and no input causes a panic.
package stacktrace
