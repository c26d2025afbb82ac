package faultboard

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

const (
	defaultPort             = 8080
	defaultAsyncConcurrency = 10
	defaultReportRate       = 20
	defaultReportBurst      = 40
)

// fbConfig holds mutable state during FaultBoard construction.
type fbConfig struct {
	title            string
	handler          http.Handler
	port             int
	asyncConcurrency int
	reportLimit      rate.Limit
	reportBurst      int
	logger           *slog.Logger
	clock            clock.Clock
}

// defaultConfig returns a config with every default applied.
func defaultConfig() *fbConfig {
	return &fbConfig{
		port:             defaultPort,
		asyncConcurrency: defaultAsyncConcurrency,
		reportLimit:      rate.Limit(defaultReportRate),
		reportBurst:      defaultReportBurst,
		clock:            clock.New(),
	}
}

// Option is a function that configures a [FaultBoard] or [Boundary] during
// construction.
//
// Option implements the functional options pattern. Options return an error
// if validation fails.
//
// Built-in options: [WithHandler], [WithPort], [WithTitle], [WithLogger],
// [WithAsyncConcurrency], [WithReportLimit], [WithClock].
type Option func(*fbConfig) error

// WithHandler sets the application handler the boundary wraps.
//
// Required by [New]. Every request the handler serves runs inside the
// render-path failure channel: a panic is captured and the failed response
// is replaced by the badge or overlay.
//
// Example:
//
//	fb, err := faultboard.New(
//	    faultboard.WithHandler(mux),
//	)
//
// Returns an error if the handler is nil.
func WithHandler(h http.Handler) Option {
	return func(cfg *fbConfig) error {
		if h == nil {
			return errors.New("handler cannot be nil")
		}
		cfg.handler = h
		return nil
	}
}

// WithPort sets the HTTP port [FaultBoard.Start] listens on.
//
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *fbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithTitle sets the browser tab title of pages FaultBoard renders itself.
//
// If not specified, defaults to "FaultBoard".
func WithTitle(title string) Option {
	return func(cfg *fbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger].
//
// Every captured failure is written to this logger at error level; it is the
// developer console of the boundary. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *fbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithAsyncConcurrency sets how many [Boundary.Async] tasks run at once.
//
// Defaults to 10 if not specified.
//
// Returns an error if the value is zero or negative.
func WithAsyncConcurrency(n int) Option {
	return func(cfg *fbConfig) error {
		if n <= 0 {
			return errors.New("async concurrency must be positive")
		}
		cfg.asyncConcurrency = n
		return nil
	}
}

// WithReportLimit limits how many browser failure reports are accepted per
// second, with the given burst. Reports over the limit are answered with
// 429 and dropped.
//
// Defaults to 20 per second with a burst of 40.
//
// Returns an error if perSecond or burst is zero or negative.
func WithReportLimit(perSecond float64, burst int) Option {
	return func(cfg *fbConfig) error {
		if perSecond <= 0 {
			return errors.New("report rate must be positive")
		}
		if burst <= 0 {
			return errors.New("report burst must be positive")
		}
		cfg.reportLimit = rate.Limit(perSecond)
		cfg.reportBurst = burst
		return nil
	}
}

// WithClock sets the clock used to timestamp captures. Intended for tests.
//
// Returns an error if the clock is nil.
func WithClock(c clock.Clock) Option {
	return func(cfg *fbConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}
