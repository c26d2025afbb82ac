package upstream

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewProxy returns a reverse proxy forwarding every request to target.
//
// headers are set on each outgoing request. Upstream connection failures
// are answered with 502 and logged; they are not application failures and
// never reach the failure overlay.
//
// Accept-Encoding is removed from forwarded requests so HTML pages come back
// uncompressed and the overlay can be injected into them.
func NewProxy(target *url.URL, headers map[string]string, client *Client, logger *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Accept-Encoding")
			for k, v := range headers {
				pr.Out.Header.Set(k, v)
			}
		},
		Transport: client.Transport(),
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("upstream request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err.Error(),
			)
			http.Error(w, "Upstream unavailable", http.StatusBadGateway)
		},
	}
}
