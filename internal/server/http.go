package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	healthhandler "github.com/00aj99/Hauk/internal/health/handler"
	sharehandler "github.com/00aj99/Hauk/internal/share/handler"
)

// httpRequestTimeout bounds one viewer request end to end.
const httpRequestTimeout = 15 * time.Second

// HTTPDeps holds the dependencies of the viewer HTTP API.
type HTTPDeps struct {
	Fetcher      sharehandler.Fetcher
	HealthPinger healthhandler.Pinger
	// Gatherer serves /metrics. If nil, /metrics is not mounted.
	Gatherer prometheus.Gatherer
}

// NewHTTPHandler returns the viewer router: /api/fetch, /healthz and /metrics.
func NewHTTPHandler(deps HTTPDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(httpRequestTimeout))

	sharehandler.NewViewer(deps.Fetcher).Routes(r)
	r.Method(http.MethodGet, "/healthz", healthhandler.NewServer(deps.HealthPinger))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}
