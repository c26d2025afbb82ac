package faultboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/jpalmerr/faultboard/dashboard"
	"github.com/jpalmerr/faultboard/internal/capture"
	"github.com/jpalmerr/faultboard/internal/hooks"
	"github.com/jpalmerr/faultboard/internal/metrics"
	"github.com/jpalmerr/faultboard/internal/stacktrace"
)

// Boundary captures unhandled failures and holds the latest one.
//
// A Boundary listens on three failure channels:
//
//   - render path: panics raised by a handler passed through [Boundary.Wrap]
//   - script errors: panics escaping goroutines started with [Boundary.Go],
//     and window errors reported by the browser client
//   - rejections: errors returned by [Boundary.Async] tasks, and unhandled
//     promise rejections reported by the browser client
//
// The script-error and rejection channels, together with the key listener,
// live in a process-wide slot. [Boundary.Mount] acquires that slot and
// [Boundary.Unmount] releases it; only one boundary can be mounted at a time.
// The render path is attached to the wrapped handler and works regardless.
//
// All channels converge on one capture operation: the new failure replaces
// the previous one, and the overlay keeps whatever visibility it had.
type Boundary struct {
	store            *capture.Store
	logger           *slog.Logger
	clock            clock.Clock
	metrics          *metrics.Metrics
	renderer         *dashboard.Renderer
	asyncConcurrency int

	mu    sync.Mutex
	lease *hooks.Lease
	pool  pond.Pool
}

// NewBoundary creates an unmounted [Boundary].
//
// Only [WithTitle], [WithLogger], [WithAsyncConcurrency] and [WithClock]
// affect a boundary; other options are accepted and ignored.
func NewBoundary(opts ...Option) (*Boundary, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return newBoundary(cfg, metrics.New())
}

// newBoundary builds a boundary from a validated config.
func newBoundary(cfg *fbConfig, m *metrics.Metrics) (*Boundary, error) {
	renderer, err := dashboard.NewRenderer(dashboard.Assets, cfg.title, dashboard.DefaultPrefix)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Boundary{
		store:            capture.NewStore(),
		logger:           logger,
		clock:            cfg.clock,
		metrics:          m,
		renderer:         renderer,
		asyncConcurrency: cfg.asyncConcurrency,
	}, nil
}

// Mount installs the boundary's hooks into the process-wide slot and starts
// its async worker pool.
//
// Returns [ErrAlreadyMounted] if this boundary is mounted, or an error
// wrapping the slot error if another boundary holds the slot.
func (b *Boundary) Mount() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lease != nil {
		return ErrAlreadyMounted
	}

	lease, err := hooks.Acquire(hooks.Handlers{
		OnError:     b.onScriptError,
		OnRejection: b.onRejection,
		OnKey:       b.onKey,
	})
	if err != nil {
		return fmt.Errorf("failed to mount boundary: %w", err)
	}

	b.lease = lease
	b.pool = pond.NewPool(b.asyncConcurrency)
	b.logger.Debug("boundary mounted")
	return nil
}

// Unmount releases the hook slot and waits for queued async tasks.
//
// After Unmount no failure reported through the process-wide channels
// reaches this boundary. Unmount is idempotent.
func (b *Boundary) Unmount() {
	b.mu.Lock()
	lease, pool := b.lease, b.pool
	b.lease, b.pool = nil, nil
	b.mu.Unlock()

	if lease == nil {
		return
	}

	// release first so tasks draining below cannot reach this boundary
	lease.Release()
	pool.StopAndWait()
	b.logger.Debug("boundary unmounted")
}

// Mounted reports whether the boundary holds the hook slot.
func (b *Boundary) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lease != nil
}

// State returns the current capture state.
func (b *Boundary) State() State {
	return b.store.Snapshot()
}

// Subscribe returns a channel receiving every state change.
// Caller must call [Boundary.Unsubscribe] when done.
func (b *Boundary) Subscribe() <-chan State {
	return b.store.Subscribe()
}

// Unsubscribe removes a subscription created by [Boundary.Subscribe].
func (b *Boundary) Unsubscribe(ch <-chan State) {
	b.store.Unsubscribe(ch)
}

// Expand opens the overlay. It is the badge's action and does nothing unless
// an error is captured and the overlay is collapsed.
func (b *Boundary) Expand() {
	b.apply(capture.ExpandRequested{})
}

// Close collapses the overlay back to the badge. The captured error stays.
func (b *Boundary) Close() {
	b.apply(capture.CloseRequested{})
}

// Reload discards the captured error, as a full page reload would.
//
// It is the only way back to [PhaseClear].
func (b *Boundary) Reload() {
	b.store.Restart()
	b.metrics.SetPhase(int(PhaseClear))
	b.logger.Info("boundary reloaded")
}

// Wrap returns a handler that runs next inside the render-path channel.
//
// A panic in next is captured together with the component trace of the
// request, and the failed response is replaced by a page showing the badge
// or overlay with status 500. The failed handler is not retried.
// [http.ErrAbortHandler] is passed through untouched.
func (b *Boundary) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		r, trail := withTrail(r)

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			perr := newPanicError(rec)
			b.capture(ChannelRender, messageOf(perr), perr.StackTrace(), componentTrace(r, trail.get()))
			b.substitute(tw, r)
		}()

		next.ServeHTTP(tw, r)
	})
}

// Go runs fn in a new goroutine. A panic escaping fn is reported through the
// script-error channel; if no boundary is mounted the panic is re-raised,
// which is Go's default for an unrecovered panic.
func (b *Boundary) Go(fn func()) {
	go func() {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			perr := newPanicError(rec)
			file, line := panicSite(perr)
			if !hooks.DispatchError(messageOf(perr), file, line, 0, perr) {
				b.metrics.RecordUnhandled(ChannelScript.String())
				panic(rec)
			}
		}()
		fn()
	}()
}

// Async runs fn on the boundary's worker pool. An error returned by fn, or a
// panic inside it, is a rejection nobody handled and is reported through the
// rejection channel. When no boundary is mounted the failure is logged
// through [slog.Default].
//
// When the boundary is not mounted fn runs on its own goroutine.
func (b *Boundary) Async(fn func() error) {
	task := func() {
		if err := runTask(fn); err != nil {
			if !hooks.DispatchRejection(err) {
				b.metrics.RecordUnhandled(ChannelRejection.String())
				msg, _ := describe(err)
				slog.Default().Error("unhandled async error", "error", msg)
			}
		}
	}

	b.mu.Lock()
	pool := b.pool
	b.mu.Unlock()

	if pool == nil || pool.Go(task) != nil {
		go task()
	}
}

// runTask calls fn, converting a panic into a *PanicError.
func runTask(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = newPanicError(rec)
		}
	}()
	return fn()
}

// onScriptError is the script-error hook.
//
// When err is present it is used directly. Otherwise a one-frame stack is
// synthesized from the location so the overlay still shows where it failed.
func (b *Boundary) onScriptError(message, source string, line, column int, err error) bool {
	if err != nil {
		msg, stack := describe(err)
		if msg == "" {
			msg = message
		}
		b.capture(ChannelScript, msg, stack, "")
		return true
	}

	b.capture(ChannelScript, message, stacktrace.Synthetic(message, source, line, column), "")
	return true
}

// onRejection is the rejection hook. Reasons that are not errors are wrapped
// in one using their string form.
func (b *Boundary) onRejection(reason any) bool {
	err, ok := reason.(error)
	if !ok || err == nil {
		err = errors.New(fmt.Sprint(reason))
	}
	msg, stack := describe(err)
	b.capture(ChannelRejection, msg, stack, "")
	return true
}

// onKey is the key listener.
func (b *Boundary) onKey(key string) {
	b.apply(capture.KeyPressed{Key: key})
}

// apply runs a visibility event and records the outcome.
func (b *Boundary) apply(e capture.Event) {
	st, changed := b.store.Apply(e)
	if !changed {
		return
	}
	b.metrics.RecordTransition(st.Phase().String(), int(st.Phase()))
	b.logger.Debug("overlay toggled", "phase", st.Phase().String())
}

// capture records a failure. It never panics: a failure inside capture is
// logged and dropped so the host application keeps running.
func (b *Boundary) capture(channel Channel, message, rawStack, trace string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("failure capture panicked",
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	captured := CapturedError{
		ID:             uuid.NewString(),
		Channel:        channel,
		Message:        message,
		RawStack:       rawStack,
		ComponentTrace: trace,
		CapturedAt:     b.clock.Now(),
	}

	logAttrs := []any{
		"correlation_id", captured.ID,
		"channel", channel.String(),
		"message", message,
	}
	if rawStack != "" {
		logAttrs = append(logAttrs, "stack", rawStack)
	}
	if trace != "" {
		logAttrs = append(logAttrs, "component_trace", trace)
	}
	b.logger.Error("failure captured", logAttrs...)

	st, _ := b.store.Apply(capture.Failure{Err: captured})
	b.metrics.RecordCapture(channel.String())
	b.metrics.SetPhase(int(st.Phase()))
}

// substitute replaces a failed response with the badge or overlay page.
func (b *Boundary) substitute(tw *trackingWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("failed to render failure page",
				"panic", fmt.Sprintf("%v", rec),
				"path", r.URL.Path,
			)
		}
	}()

	if tw.wroteHeader {
		// part of the response is already on the wire; the client script
		// picks the capture up from the event stream instead
		return
	}

	tw.Header().Set("Content-Type", "text/html; charset=utf-8")
	tw.Header().Del("Content-Length")
	tw.WriteHeader(http.StatusInternalServerError)
	if err := b.renderer.Page(tw, b.store.Snapshot()); err != nil {
		b.logger.Error("failed to render failure page", "error", err, "path", r.URL.Path)
	}
}

// panicSite returns the file and line of the innermost frame of perr.
func panicSite(perr *PanicError) (string, int) {
	frames := stacktrace.Parse(perr.StackTrace())
	if len(frames) == 0 {
		return "", 0
	}
	line, _ := strconv.Atoi(frames[0].Line)
	return frames[0].FullPath, line
}

// trackingWriter records whether the response header was sent.
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *trackingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		w.wroteHeader = true
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to [http.ResponseController].
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// componentTrace renders names, innermost first, followed by the request
// itself. names is ordered outermost first. Without components the trace is
// empty.
func componentTrace(r *http.Request, names []string) string {
	if len(names) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := len(names) - 1; i >= 0; i-- {
		sb.WriteString("\n    in ")
		sb.WriteString(names[i])
	}
	fmt.Fprintf(&sb, "\n    in %s %s", r.Method, r.URL.Path)
	return sb.String()
}
