package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitReady_EventuallyReady(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := WaitReady(context.Background(), NewClient(), ReadyConfig{
		URL:             server.URL,
		MaxWait:         5 * time.Second,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     20 * time.Millisecond,
	}, testLogger())
	if err != nil {
		t.Fatalf("WaitReady() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("probes = %d, want 3", calls.Load())
	}
}

func TestWaitReady_ClientErrorsCountAsReady(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := WaitReady(context.Background(), NewClient(), ReadyConfig{URL: server.URL, MaxWait: time.Second}, testLogger())
	if err != nil {
		t.Errorf("WaitReady() error = %v, want nil for a 404", err)
	}
}

func TestWaitReady_GivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	start := time.Now()
	err := WaitReady(context.Background(), NewClient(), ReadyConfig{
		URL:             server.URL,
		MaxWait:         200 * time.Millisecond,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     50 * time.Millisecond,
	}, testLogger())
	if err == nil {
		t.Fatal("WaitReady() expected error, got nil")
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("WaitReady() took %v, should stop near MaxWait", time.Since(start))
	}
}

func TestWaitReady_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WaitReady(ctx, NewClient(), ReadyConfig{URL: "http://127.0.0.1:1"}, testLogger())
	if err == nil {
		t.Error("WaitReady() expected error for cancelled context, got nil")
	}
}
