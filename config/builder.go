package config

import (
	"net/http"

	"github.com/jpalmerr/faultboard"
)

// BuildOptions converts parsed configuration into SDK options wrapping app.
func BuildOptions(cfg *Config, app http.Handler) []faultboard.Option {
	opts := []faultboard.Option{
		faultboard.WithHandler(app),
		faultboard.WithPort(cfg.Port),
		faultboard.WithAsyncConcurrency(cfg.AsyncConcurrency),
		faultboard.WithReportLimit(cfg.Reports.Rate, cfg.Reports.Burst),
	}
	if cfg.Title != "" {
		opts = append(opts, faultboard.WithTitle(cfg.Title))
	}
	return opts
}
