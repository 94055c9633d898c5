// Package http assembles the HTTP surface: middleware chain, feature
// routes, the built-in mock registry, and operational endpoints.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercatorio/internal/certificate"
	"mercatorio/internal/creditor"
	"mercatorio/internal/document"
	"mercatorio/internal/platform/metrics"
	"mercatorio/internal/platform/middleware"
	"mercatorio/internal/registry"
)

// requestTimeout bounds every request; uploads are bounded in size, so a
// generous flat deadline is enough.
const requestTimeout = 30 * time.Second

// Deps carries everything the router needs.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Creditors    *creditor.Handler
	Documents    *document.Handler
	Certificates *certificate.Handler

	// MockRegistry is optional; when set the process serves its own
	// registry stand-in.
	MockRegistry *registry.MockHandler
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))

	deps.Creditors.Register(r)
	deps.Documents.Register(r)
	deps.Certificates.Register(r)
	if deps.MockRegistry != nil {
		deps.MockRegistry.Register(r)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
