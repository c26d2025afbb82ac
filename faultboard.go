package faultboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jpalmerr/faultboard/dashboard"
	"github.com/jpalmerr/faultboard/internal/metrics"
	"github.com/jpalmerr/faultboard/internal/server"
)

// FaultBoard serves an application with its failure overlay.
//
// FaultBoard wraps the application handler in a [Boundary], serves it
// together with the FaultBoard routes, and injects the badge or overlay into
// every HTML page the application returns. It is created using [New] with
// functional options and started with [FaultBoard.Start].
//
// The typical lifecycle is:
//
//	fb, err := faultboard.New(faultboard.WithHandler(mux))
//	if err != nil {
//	    slog.Error("failed to create faultboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	fb.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type FaultBoard struct {
	title    string
	port     int
	logger   *slog.Logger
	boundary *Boundary
	server   *server.Server
}

// New creates a new [FaultBoard] instance with the given options.
//
// An application handler must be configured via [WithHandler].
// Other options have sensible defaults:
//   - Port: 8080
//   - Title: "FaultBoard"
//   - Async concurrency: 10
//   - Browser reports: 20 per second, burst 40
//
// Returns [ErrNoHandler] if no handler is configured, or the error of any
// invalid option.
//
// Example:
//
//	fb, err := faultboard.New(
//	    faultboard.WithHandler(mux),
//	    faultboard.WithPort(9090),
//	    faultboard.WithTitle("Orders"),
//	)
func New(opts ...Option) (*FaultBoard, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.handler == nil {
		return nil, ErrNoHandler
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.logger = logger

	m := metrics.New()
	b, err := newBoundary(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("failed to create boundary: %w", err)
	}

	srv := server.NewServer(server.Config{
		Port:        cfg.port,
		Prefix:      dashboard.DefaultPrefix,
		App:         b.Wrap(cfg.handler),
		Board:       b,
		Renderer:    b.renderer,
		Metrics:     m,
		ReportLimit: cfg.reportLimit,
		ReportBurst: cfg.reportBurst,
		Logger:      logger,
	})

	return &FaultBoard{
		title:    cfg.title,
		port:     cfg.port,
		logger:   logger,
		boundary: b,
		server:   srv,
	}, nil
}

// Start mounts the boundary and serves the application.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The boundary holds the process-wide failure hooks
//   - The HTTP server serves the application and the FaultBoard routes
//   - Every captured failure is logged at error level
//
// On cancellation the server shuts down gracefully and the boundary is
// unmounted, releasing the hooks.
//
// Returns nil on graceful shutdown. Returns an error if the boundary cannot
// be mounted or the HTTP server fails to start.
func (fb *FaultBoard) Start(ctx context.Context) error {
	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	if err := fb.boundary.Mount(); err != nil {
		return err
	}
	defer fb.boundary.Unmount()

	fb.logger.Info("faultboard starting", "title", fb.Title())
	if err := fb.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	fb.logger.Info("application available", "url", fmt.Sprintf("http://localhost:%d", fb.port))

	<-ctx.Done()
	fb.logger.Info("faultboard stopped")
	return nil
}

// Handler returns the composed handler for embedding in an existing server.
//
// The boundary must be mounted separately via [FaultBoard.Boundary] for the
// script-error and rejection channels to be captured.
func (fb *FaultBoard) Handler() http.Handler {
	return fb.server.Handler()
}

// Boundary returns the boundary wrapping the application.
func (fb *FaultBoard) Boundary() *Boundary {
	return fb.boundary
}

// Port returns the configured HTTP port.
func (fb *FaultBoard) Port() int {
	return fb.port
}

// Title returns the configured title, or the default when none was set.
func (fb *FaultBoard) Title() string {
	if fb.title == "" {
		return "FaultBoard"
	}
	return fb.title
}
