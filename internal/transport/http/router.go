// Package httptransport assembles the process HTTP surface: the shared
// middleware chain, the feature routes under /api and the platform probes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"fieldsync/internal/platform/metrics"
	"fieldsync/pkg/platform/httputil"
	"fieldsync/pkg/platform/middleware/metadata"
	"fieldsync/pkg/platform/middleware/request"
	"fieldsync/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// Check reports whether a dependency can serve traffic.
type Check func(ctx context.Context) error

// Config carries everything the router mounts.
type Config struct {
	Logger         *slog.Logger
	Registry       *prometheus.Registry
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	// ReadyTimeout bounds the readiness checks as a whole.
	ReadyTimeout time.Duration
	// Checks run in name order on GET /readyz.
	Checks map[string]Check
	API    []Registrar
}

// NewRouter wires middleware and routes.
func NewRouter(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	r.Use(cfg.Metrics.Middleware)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "not_found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method_not_allowed"})
	})

	r.Get("/readyz", readiness(cfg))
	if cfg.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Registry))
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(request.Timeout(cfg.RequestTimeout))
		}
		for _, h := range cfg.API {
			h.Register(api)
		}
	})

	return r
}
