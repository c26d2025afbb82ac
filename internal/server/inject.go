package server

import (
	"bytes"
	"net/http"
	"strings"
)

var (
	// mountMarker is present in any page that already carries the view.
	mountMarker = []byte(`id="__faultboard"`)

	bodyClose = []byte("</body>")
)

// inject returns a handler that adds the current view and client script to
// HTML responses of next. Other responses pass through untouched.
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		iw := &injectWriter{ResponseWriter: w}
		next.ServeHTTP(iw, r)

		if !iw.buffering {
			return
		}

		mount, err := s.renderer.MountBytes(s.board.State())
		if err != nil {
			s.logger.Error("failed to render view for injection", "error", err, "path", r.URL.Path)
			mount = nil
		}
		iw.finish(mount)
	})
}

// injectWriter buffers HTML responses until the handler returns.
type injectWriter struct {
	http.ResponseWriter
	status    int
	decided   bool
	buffering bool
	buf       bytes.Buffer
}

func (w *injectWriter) WriteHeader(code int) {
	if w.decided {
		return
	}
	w.decided = true
	w.status = code

	h := w.Header()
	if isHTML(h.Get("Content-Type")) && h.Get("Content-Encoding") == "" {
		w.buffering = true
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *injectWriter) Write(p []byte) (int, error) {
	if !w.decided {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.buffering {
		return w.buf.Write(p)
	}
	return w.ResponseWriter.Write(p)
}

// Flush is held back while an HTML page is buffered; the page goes out
// with the view injected once the handler returns. Other responses flush
// through.
func (w *injectWriter) Flush() {
	if w.buffering {
		return
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to [http.ResponseController].
func (w *injectWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// finish writes the buffered response with mount inserted before the last
// </body>, or appended when the page has none. A nil mount, or a page that
// already carries the view, is written unchanged.
func (w *injectWriter) finish(mount []byte) {
	body := w.buf.Bytes()
	w.buffering = false

	if mount != nil && !bytes.Contains(body, mountMarker) {
		body = insertBeforeBodyClose(body, mount)
	}

	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)
	_, _ = w.ResponseWriter.Write(body)
	w.buf.Reset()
}

// insertBeforeBodyClose returns page with mount inserted before its last
// </body> tag.
func insertBeforeBodyClose(page, mount []byte) []byte {
	idx := lastIndexFold(page, bodyClose)
	if idx < 0 {
		return append(append([]byte{}, page...), mount...)
	}

	out := make([]byte, 0, len(page)+len(mount))
	out = append(out, page[:idx]...)
	out = append(out, mount...)
	return append(out, page[idx:]...)
}

// lastIndexFold returns the index of the last case-insensitive match of tag
// in page, or -1. tag must be ASCII.
func lastIndexFold(page, tag []byte) int {
	for i := len(page) - len(tag); i >= 0; i-- {
		if page[i] == tag[0] && bytes.EqualFold(page[i:i+len(tag)], tag) {
			return i
		}
	}
	return -1
}

func isHTML(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "text/html")
}
