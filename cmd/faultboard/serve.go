package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jpalmerr/faultboard"
	"github.com/jpalmerr/faultboard/config"
	"github.com/jpalmerr/faultboard/internal/upstream"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts FaultBoard in front of the configured application.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Proxy the application with the failure overlay",
	Long: `Start FaultBoard as a reverse proxy in front of an application.

The server will:
  - Load configuration from the specified YAML or TOML file
  - Wait for the upstream application to answer, with backoff
  - Proxy every request to the application
  - Inject the failure badge and overlay into its HTML pages
  - Capture window errors and unhandled rejections reported by the browser

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  faultboard serve -c faultboard.yaml
  faultboard serve --config /etc/faultboard/faultboard.toml --no-wait`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	serveCmd.Flags().Bool("no-wait", false, "start without waiting for the upstream to answer")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	noWait, _ := cmd.Flags().GetBool("no-wait")

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg.SlogLevel())
	slog.SetDefault(logger)

	logger.Info("config loaded",
		"upstream", cfg.Upstream.URL,
		"port", cfg.Port,
	)

	target, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return fmt.Errorf("invalid upstream url: %w", err)
	}

	client := upstream.NewClient()
	defer client.Close()

	proxy := upstream.NewProxy(target, cfg.Upstream.Headers, client, logger)

	fb, err := faultboard.New(append(config.BuildOptions(cfg, proxy), faultboard.WithLogger(logger))...)
	if err != nil {
		return fmt.Errorf("failed to create FaultBoard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, fb, client, cfg, !noWait, logger)
}

// serve waits for the upstream, then runs fb until ctx is cancelled.
func serve(ctx context.Context, fb *faultboard.FaultBoard, client *upstream.Client, cfg *config.Config, wait bool, logger *slog.Logger) error {
	if wait {
		err := upstream.WaitReady(ctx, client, upstream.ReadyConfig{
			URL:     cfg.Upstream.ReadyURL(),
			Headers: cfg.Upstream.Headers,
			MaxWait: cfg.Upstream.ReadyTimeout.Duration(),
		}, logger)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Start blocks until gctx is cancelled
		if err := fb.Start(gctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
