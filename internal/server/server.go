package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jpalmerr/faultboard/dashboard"
	"github.com/jpalmerr/faultboard/internal/capture"
	"github.com/jpalmerr/faultboard/internal/metrics"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// This prevents goroutine leaks when clients are slow or disconnected.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	// shutdownTimeout bounds graceful shutdown of in-flight requests.
	shutdownTimeout = 5 * time.Second

	// maxReportBytes caps the body of a browser failure report.
	maxReportBytes = 64 << 10
)

// Board is the capture state the server presents and controls.
type Board interface {
	State() capture.State
	Subscribe() <-chan capture.State
	Unsubscribe(ch <-chan capture.State)
	Expand()
	Close()
	Reload()
}

// Config holds the dependencies of a [Server].
type Config struct {
	// Port is the TCP port [Server.Start] listens on.
	Port int

	// Prefix is the path prefix of FaultBoard routes. Defaults to
	// [dashboard.DefaultPrefix].
	Prefix string

	// App is the application handler, already wrapped by the boundary.
	// May be nil, in which case only FaultBoard routes are served.
	App http.Handler

	Board    Board
	Renderer *dashboard.Renderer
	Metrics  *metrics.Metrics

	// ReportLimit and ReportBurst bound accepted browser reports.
	ReportLimit rate.Limit
	ReportBurst int

	Logger *slog.Logger
}

// Server handles HTTP requests for FaultBoard and the wrapped application.
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	board      Board
	renderer   *dashboard.Renderer
	metrics    *metrics.Metrics
	app        http.Handler
	prefix     string
	port       int
	limiter    *rate.Limiter
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// The server is not started until [Server.Start] is called.
func NewServer(cfg Config) *Server {
	prefix := strings.TrimSuffix(cfg.Prefix, "/")
	if prefix == "" {
		prefix = dashboard.DefaultPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit, burst := cfg.ReportLimit, cfg.ReportBurst
	if limit <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}

	return &Server{
		board:    cfg.Board,
		renderer: cfg.Renderer,
		metrics:  cfg.Metrics,
		app:      cfg.App,
		prefix:   prefix,
		port:     cfg.Port,
		limiter:  rate.NewLimiter(limit, burst),
		logger:   logger,
	}
}

// Handler returns the composed handler: FaultBoard routes under the prefix,
// and the application, with overlay injection, everywhere else.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(s.prefix+"/view", s.handleView)
	mux.HandleFunc(s.prefix+"/client.js", s.handleClientScript)
	mux.HandleFunc(s.prefix+"/api/state", s.handleState)
	mux.HandleFunc(s.prefix+"/api/sse", s.handleSSE)
	mux.HandleFunc(s.prefix+"/api/expand", s.handleExpand)
	mux.HandleFunc(s.prefix+"/api/close", s.handleClose)
	mux.HandleFunc(s.prefix+"/api/key", s.handleKey)
	mux.HandleFunc(s.prefix+"/api/reload", s.handleReload)
	mux.HandleFunc(s.prefix+"/api/report", s.handleReport)
	if s.metrics != nil {
		mux.Handle(s.prefix+"/metrics", s.metrics.Handler())
	}

	if s.app != nil {
		mux.Handle("/", s.inject(s.app))
	} else {
		mux.HandleFunc("/", s.handlePage)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// BaseContext derives all request contexts from the server context.
		// When ctx is cancelled, all request contexts are also cancelled,
		// enabling graceful shutdown of long-running handlers like SSE.
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	// shutdown on context cancellation
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handlePage serves a bare page showing the current view. Used when no
// application is configured.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Page(w, s.board.State()); err != nil {
		s.logger.Error("failed to write page response", "error", err)
	}
}

// handleView serves the current view fragment.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if err := s.renderer.Fragment(w, s.board.State()); err != nil {
		s.logger.Error("failed to write view response", "error", err)
	}
}

// handleClientScript serves the browser client script.
func (s *Server) handleClientScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	if _, err := w.Write(s.renderer.ClientScript()); err != nil {
		s.logger.Error("failed to write client script", "error", err)
	}
}

// stateResponse is the JSON form of a capture state.
type stateResponse struct {
	Phase    string          `json:"phase"`
	Expanded bool            `json:"expanded"`
	Error    *capture.Error  `json:"error,omitempty"`
	Frames   json.RawMessage `json:"frames,omitempty"`
}

// newStateResponse builds the JSON form of st, parsing frames on the way.
func newStateResponse(st capture.State) stateResponse {
	resp := stateResponse{
		Phase:    st.Phase().String(),
		Expanded: st.Expanded,
		Error:    st.Error,
	}
	if st.Error != nil {
		if frames, err := json.Marshal(st.Error.Frames()); err == nil {
			resp.Frames = frames
		}
	}
	return resp
}

// handleState returns the current state as JSON.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(newStateResponse(s.board.State())); err != nil {
		s.logger.Error("failed to encode state response", "error", err)
	}
}

// handleSSE streams state changes via Server-Sent Events.
//
// The handler uses write deadlines to prevent goroutine leaks when clients are
// slow or disconnected. Without deadlines, a blocked Fprintf call would prevent
// the handler from detecting context cancellation or channel closure.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	// check if flushing is supported
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				// deadline not supported by underlying connection, continue without
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}

		return rc.Flush()
	}

	// set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before reading the snapshot so no change is missed
	ch := s.board.Subscribe()
	defer s.board.Unsubscribe(ch)

	send := func(st capture.State) error {
		data, err := json.Marshal(newStateResponse(st))
		if err != nil {
			s.logger.Error("failed to encode sse state", "error", err)
			return nil
		}
		return writeAndFlush(data)
	}

	// send initial state (also protected by write deadline)
	if err := send(s.board.State()); err != nil {
		return
	}

	// stream updates
	for {
		select {
		case st, ok := <-ch:
			if !ok {
				return
			}
			if err := send(st); err != nil {
				return
			}

		case <-r.Context().Done():
			// request context is derived from server context via BaseContext,
			// so this fires on both client disconnect AND server shutdown
			return
		}
	}
}
