// Package httptransport assembles the HTTP surface: shared middleware,
// health and metrics endpoints, and the per-module handlers. Business
// logic stays in the module services; this package only routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veris/internal/transport/http/metrics"
	"veris/pkg/platform/httputil"
	"veris/pkg/platform/middleware/metadata"
)

// Registrar is implemented by each module's HTTP handler.
type Registrar interface {
	Register(r chi.Router)
}

// Options configures router assembly.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar

	// DevTokens is nil unless the local token endpoint is enabled.
	DevTokens *TokenHandler
}

// NewRouter builds the complete application router.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(Instrument(opts.Metrics))
	r.Use(RequestLogger(opts.Logger))

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		for _, h := range opts.Handlers {
			h.Register(v1)
		}
		if opts.DevTokens != nil {
			opts.DevTokens.Register(v1)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
