package upstream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultProbeTimeout = 5 * time.Second

// ReadyConfig controls [WaitReady].
type ReadyConfig struct {
	// URL is probed with GET until it answers below 500.
	URL string

	// Headers are sent with every probe.
	Headers map[string]string

	// MaxWait bounds the total time spent waiting. Zero waits until ctx ends.
	MaxWait time.Duration

	// InitialInterval is the first retry delay. Defaults to 200ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry delay. Defaults to 5s.
	MaxInterval time.Duration
}

// WaitReady blocks until the upstream answers a probe with a status below
// 500, retrying with exponential backoff.
//
// Returns an error when MaxWait elapses or ctx is cancelled first.
func WaitReady(ctx context.Context, client *Client, cfg ReadyConfig, logger *slog.Logger) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = cfg.MaxWait
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}

	attempts := 0
	probe := func() error {
		attempts++
		resp := client.Probe(ctx, cfg.URL, cfg.Headers, defaultProbeTimeout)
		if resp.Error != nil {
			return resp.Error
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("upstream answered %d", resp.StatusCode)
		}
		return nil
	}

	notify := func(err error, next time.Duration) {
		logger.Info("upstream not ready",
			"url", cfg.URL,
			"attempt", attempts,
			"retry_in", next.String(),
			"error", err.Error(),
		)
	}

	if err := backoff.RetryNotify(probe, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("upstream %s not ready after %d attempts: %w", cfg.URL, attempts, err)
	}

	logger.Info("upstream ready", "url", cfg.URL, "attempts", attempts)
	return nil
}
