// Standalone demo application for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/faultboard serve -c example/faultboard.yaml
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Mock App</title></head>
<body>
  <h1>Mock App</h1>
  <p>Served on :9999. Open it through FaultBoard on :8080 to see failures.</p>
  <button onclick="renderChart()">Throw a TypeError</button>
  <button onclick="fetchData()">Reject a promise</button>
  <script>
    function renderChart() {
      var chart;
      chart.draw();
    }
    function fetchData() {
      Promise.reject(new Error("fetch /api/data failed: 500"));
    }
  </script>
</body>
</html>`

func main() {
	fmt.Println("Mock application starting on :9999")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("mock server failed", "error", err)
		os.Exit(1)
	}
}
