// Package httpserver provides the observability HTTP endpoint for bradis:
// Prometheus metrics on /metrics and a liveness probe on /healthz.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/braddunbar/bradis/internal/telemetry/metric"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
}

// New creates the HTTP server for the given metrics registry.
func New(addr string, metrics *metric.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
