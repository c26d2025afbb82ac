package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/faultboard"
	"github.com/jpalmerr/faultboard/config"
	"github.com/jpalmerr/faultboard/internal/upstream"
)

func TestServe_ProxiesAndInjects(t *testing.T) {
	app := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, "<html><body><h1>app</h1></body></html>")
	}))
	defer app.Close()

	cfg, err := config.Parse([]byte(fmt.Sprintf("port: 19301\nupstream:\n  url: %s\n  ready_timeout: 2s\n", app.URL)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := upstream.NewClient()
	defer client.Close()

	target, _ := url.Parse(cfg.Upstream.URL)
	proxy := upstream.NewProxy(target, cfg.Upstream.Headers, client, logger)

	fb, err := faultboard.New(append(config.BuildOptions(cfg, proxy), faultboard.WithLogger(logger))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, fb, client, cfg, true, logger)
	}()

	var body string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://localhost:19301/")
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(b)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !strings.Contains(body, "<h1>app</h1>") {
		t.Errorf("proxied body missing app content: %q", body)
	}
	if !strings.Contains(body, `id="__faultboard"`) {
		t.Errorf("proxied body missing overlay mount: %q", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}
}

func TestServe_CancelledWhileWaiting(t *testing.T) {
	cfg, err := config.Parse([]byte("port: 19302\nupstream:\n  url: http://127.0.0.1:1\n  ready_timeout: 10s\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := upstream.NewClient()
	defer client.Close()

	fb, err := faultboard.New(append(config.BuildOptions(cfg, http.NotFoundHandler()), faultboard.WithLogger(logger))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := serve(ctx, fb, client, cfg, true, logger); err != nil {
		t.Errorf("serve() error = %v, want nil on cancellation", err)
	}
}
