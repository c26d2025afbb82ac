package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jpalmerr/faultboard/internal/hooks"
)

// Report kinds posted by the client script.
const (
	reportKindError     = "error"
	reportKindRejection = "rejection"
)

// Report outcomes recorded in metrics.
const (
	outcomeHandled   = "handled"
	outcomeUnhandled = "unhandled"
	outcomeLimited   = "limited"
	outcomeInvalid   = "invalid"
)

// report is a browser failure posted by the client script.
type report struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Source  string `json:"source"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Stack   string `json:"stack"`
	IsError bool   `json:"is_error"`
}

// keyRequest is a key press forwarded by the client script.
type keyRequest struct {
	Key string `json:"key"`
}

// browserError is an error raised in the browser, carrying its stack text.
type browserError struct {
	message string
	stack   string
}

func (e *browserError) Error() string {
	return e.message
}

// StackTrace returns the stack text the browser reported.
func (e *browserError) StackTrace() string {
	return e.stack
}

// handleExpand handles the badge's expand request.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.board.Expand)
}

// handleClose handles the overlay's Close control.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.board.Close)
}

// handleReload handles the overlay's Reload control.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.board.Reload)
}

// control runs a state-changing action and answers 204.
func (s *Server) control(w http.ResponseWriter, r *http.Request, action func()) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	action()
	w.WriteHeader(http.StatusNoContent)
}

// handleKey forwards a key press to the installed key listener.
//
// Answers 204 when a listener received the key, 409 when no boundary is
// mounted.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req keyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid key request", http.StatusBadRequest)
		return
	}

	if !hooks.DispatchKey(req.Key) {
		http.Error(w, "No boundary mounted", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReport feeds a browser failure into the script-error or rejection
// channel.
//
// Answers 202 when a boundary handled the report, 200 when none was mounted
// (the report is then logged through slog.Default), 429 when over the rate
// limit and 400 for a malformed report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.limiter.Allow() {
		s.recordReport(outcomeLimited)
		http.Error(w, "Too many reports", http.StatusTooManyRequests)
		return
	}

	var rep report
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxReportBytes)).Decode(&rep); err != nil {
		s.recordReport(outcomeInvalid)
		http.Error(w, "Invalid report", http.StatusBadRequest)
		return
	}

	var handled bool
	switch rep.Kind {
	case reportKindError:
		handled = dispatchErrorReport(rep)
	case reportKindRejection:
		handled = dispatchRejectionReport(rep)
	default:
		s.recordReport(outcomeInvalid)
		http.Error(w, "Unknown report kind", http.StatusBadRequest)
		return
	}

	if !handled {
		s.recordReport(outcomeUnhandled)
		slog.Default().Error("unhandled browser failure",
			"kind", rep.Kind,
			"message", rep.Message,
			"source", rep.Source,
			"line", rep.Line,
			"column", rep.Column,
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	s.recordReport(outcomeHandled)
	w.WriteHeader(http.StatusAccepted)
}

// dispatchErrorReport sends a window error to the script-error hook. An
// error object is only passed when the browser supplied its stack.
func dispatchErrorReport(rep report) bool {
	var err error
	if rep.Stack != "" {
		err = &browserError{message: rep.Message, stack: rep.Stack}
	}
	return hooks.DispatchError(rep.Message, rep.Source, rep.Line, rep.Column, err)
}

// dispatchRejectionReport sends an unhandled rejection to the rejection
// hook. A rejected Error keeps its stack; any other reason is passed as text.
func dispatchRejectionReport(rep report) bool {
	if rep.IsError {
		if rep.Stack != "" {
			return hooks.DispatchRejection(&browserError{message: rep.Message, stack: rep.Stack})
		}
		return hooks.DispatchRejection(errors.New(rep.Message))
	}
	return hooks.DispatchRejection(rep.Message)
}

func (s *Server) recordReport(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordReport(outcome)
	}
}
