package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/faultboard"
)

const page = `<!DOCTYPE html>
<html>
<head><title>FaultBoard Demo</title></head>
<body>
  <h1>FaultBoard Demo</h1>
  <ul>
    <li><a href="/profile">Render failure</a> (a handler panics)</li>
    <li><a href="/job">Background failure</a> (a goroutine panics)</li>
    <li><a href="/sync">Async failure</a> (a task returns an error)</li>
    <li><button onclick="undefinedFunction()">Browser error</button></li>
    <li><button onclick="Promise.reject(new Error('request failed'))">Unhandled rejection</button></li>
  </ul>
</body>
</html>`

type profile struct {
	Name string
}

func main() {
	var fb *faultboard.FaultBoard

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})

	// nil profile: the panic is captured with the component trace
	// "in ProfileCard / in Profile / in GET /profile"
	var p *profile
	card := faultboard.Component("ProfileCard", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<h1>%s</h1>", p.Name)
	}))
	mux.Handle("/profile", faultboard.Component("Profile", card))

	mux.HandleFunc("/job", func(w http.ResponseWriter, r *http.Request) {
		fb.Boundary().Go(func() {
			var counts map[string]int
			counts["jobs"]++
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		fb.Boundary().Async(func() error {
			time.Sleep(100 * time.Millisecond)
			return errors.New("sync failed: upstream returned 503")
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})

	var err error
	fb, err = faultboard.New(
		faultboard.WithHandler(mux),
		faultboard.WithTitle("FaultBoard Demo"),
		faultboard.WithPort(8080),
	)
	if err != nil {
		slog.Error("failed to create faultboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   FaultBoard Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║   and trigger a failure from the list                 ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fb.Start(ctx); err != nil {
		slog.Error("faultboard error", "error", err)
		os.Exit(1)
	}
}
