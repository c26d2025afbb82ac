// Package faultboard provides an embeddable, development-time failure
// overlay for Go web applications.
//
// FaultBoard wraps an application [http.Handler], captures every failure the
// application does not handle, and shows the most recent one in the browser:
// a small red badge over the still-working page, or, once the badge is
// clicked, a full-viewport overlay with the message, the parsed call stack
// and the component trace.
//
// # Quick Start
//
// Wrap the application and start it with graceful shutdown:
//
//	fb, _ := faultboard.New(faultboard.WithHandler(mux))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	fb.Start(ctx) // blocks until context is cancelled
//
// # Failure Channels
//
// Failures reach the board through three channels:
//
//   - Render path: a panic in a handler served through [Boundary.Wrap]. The
//     failed response is replaced by the badge page with status 500. Name
//     parts of the application with [Component] to get a component trace.
//   - Script errors: panics escaping goroutines started with [Boundary.Go],
//     and window errors reported by the browser.
//   - Rejections: errors returned by tasks started with [Boundary.Async],
//     and unhandled promise rejections reported by the browser.
//
// Only the latest failure is kept. A new failure replaces the previous one
// without changing whether the overlay is open. Escape or the Close button
// collapses the overlay back to the badge; Reload clears the failure.
//
// # Configuration
//
// FaultBoard uses the functional options pattern for configuration:
//
//	fb, err := faultboard.New(
//	    faultboard.WithHandler(mux),
//	    faultboard.WithPort(9090),
//	    faultboard.WithTitle("Orders"),
//	    faultboard.WithLogger(logger),
//	    faultboard.WithAsyncConcurrency(4),
//	)
//
// # Architecture
//
// FaultBoard consists of several internal packages (under internal/):
//
//   - internal/stacktrace: Stack text parsing and formatting of Go frames
//   - internal/capture: The capture state machine and its concurrent store
//   - internal/hooks: The process-wide hook slot a mounted boundary owns
//   - internal/server: HTTP routes, page injection and Server-Sent Events
//   - internal/metrics: Prometheus collectors
//   - dashboard: Embedded badge and overlay templates and the client script
//
// The internal packages are not part of the public API and may change
// without notice.
package faultboard
