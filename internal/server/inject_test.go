package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serve(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func htmlApp(page string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", "999")
		io.WriteString(w, page)
	})
}

func TestInject_HTMLPage(t *testing.T) {
	mb := newMockBoard()
	mb.fail("injected failure")
	srv := newTestServer(t, mb, htmlApp("<html><body><p>app</p></body></html>"))

	rec := serve(srv.Handler(), "/")
	body := rec.Body.String()

	mountAt := strings.Index(body, `<div id="__faultboard">`)
	if mountAt < 0 {
		t.Fatalf("page should carry the mount, got: %s", body)
	}
	if mountAt < strings.Index(body, "<p>app</p>") || mountAt > strings.Index(body, "</body>") {
		t.Errorf("mount should sit before </body>, got: %s", body)
	}
	if !strings.Contains(body, `data-faultboard-action="expand"`) {
		t.Error("page should render the badge for the captured failure")
	}
	if !strings.Contains(body, `<script src="/__faultboard/client.js" defer></script>`) {
		t.Error("page should load the client script")
	}
	if cl := rec.Header().Get("Content-Length"); cl != "" {
		t.Errorf("Content-Length = %q, want removed", cl)
	}
}

func TestInject_DetectsHTMLWithoutContentType(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<!DOCTYPE html><html><body>hi</body></html>")
	}))

	body := serve(srv.Handler(), "/").Body.String()
	if !strings.Contains(body, `id="__faultboard"`) {
		t.Errorf("sniffed HTML should be injected, got: %s", body)
	}
}

func TestInject_NoBodyTagAppends(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), htmlApp("<p>fragment</p>"))

	body := serve(srv.Handler(), "/").Body.String()
	if !strings.HasPrefix(body, "<p>fragment</p>") || !strings.Contains(body, `id="__faultboard"`) {
		t.Errorf("mount should be appended, got: %s", body)
	}
}

func TestInject_UppercaseBodyTag(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), htmlApp("<HTML><BODY>x</BODY></HTML>"))

	body := serve(srv.Handler(), "/").Body.String()
	if !strings.HasSuffix(body, "</BODY></HTML>") || !strings.Contains(body, `id="__faultboard"`) {
		t.Errorf("mount should sit before </BODY>, got: %s", body)
	}
}

func TestInject_AlreadyMounted(t *testing.T) {
	page := `<html><body><div id="__faultboard"></div></body></html>`
	srv := newTestServer(t, newMockBoard(), htmlApp(page))

	body := serve(srv.Handler(), "/").Body.String()
	if body != page {
		t.Errorf("page with a mount should pass through, got: %s", body)
	}
}

func TestInject_NonHTMLPassesThrough(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"ok":true}`)
	}))

	rec := serve(srv.Handler(), "/api/orders")
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if rec.Body.String() != `{"ok":true}` {
		t.Errorf("body = %q, want untouched JSON", rec.Body.String())
	}
}

func TestInject_KeepsStatus(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "<html><body>missing</body></html>")
	}))

	rec := serve(srv.Handler(), "/nope")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), `id="__faultboard"`) {
		t.Error("error pages should be injected too")
	}
}

func TestInject_FlushHeldWhileBuffering(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, "<html><body>")
		w.(http.Flusher).Flush()
		io.WriteString(w, "streamed</body></html>")
	}))

	rec := serve(srv.Handler(), "/")
	body := rec.Body.String()
	if !strings.HasPrefix(body, "<html><body>streamed") || !strings.Contains(body, `id="__faultboard"`) {
		t.Errorf("flushed page should still be injected, got: %s", body)
	}
}

func TestInject_FlushPassesThroughForStreams(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: 1\n\n")
		w.(http.Flusher).Flush()
	}))

	rec := serve(srv.Handler(), "/events")
	if !rec.Flushed {
		t.Error("Flush should reach the underlying writer")
	}
	if rec.Body.String() != "data: 1\n\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestInject_CompressedPassesThrough(t *testing.T) {
	srv := newTestServer(t, newMockBoard(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		w.Write([]byte{0x1f, 0x8b})
	}))

	rec := serve(srv.Handler(), "/")
	if rec.Body.Len() != 2 {
		t.Errorf("compressed body should pass through, got %d bytes", rec.Body.Len())
	}
}

func TestInsertBeforeBodyClose(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"body tag", "<body>a</body>", "<body>aM</body>"},
		{"last body tag wins", "<body></body><body></body>", "<body></body><body>M</body>"},
		{"no body tag", "plain", "plainM"},
		{"empty", "", "M"},
		{"upper case tag", "<BODY>a</BODY>", "<BODY>aM</BODY>"},
		{"multibyte runes before tag", "İİİİİİİİ<p>x</p></body></html>", "İİİİİİİİ<p>x</p>M</body></html>"},
		{"invalid utf-8 before tag", strings.Repeat("\xe9", 20) + "</body>", strings.Repeat("\xe9", 20) + "M</body>"},
		{"partial tag at end", "<body>a</bo", "<body>a</boM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(insertBeforeBodyClose([]byte(tt.page), []byte("M")))
			if got != tt.want {
				t.Errorf("insertBeforeBodyClose() = %q, want %q", got, tt.want)
			}
		})
	}
}
