// Package observability provides the operational surfaces of the service:
// the metrics and probe HTTP listener and the gRPC interceptors.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ReadyFunc reports whether the inference pipelines can take traffic.
type ReadyFunc func() bool

// Server exposes Prometheus metrics and kubelet-style probes on a listener
// separate from the public API, so scrapes and probes survive API saturation.
type Server struct {
	server *http.Server
	addr   string
	ready  ReadyFunc
}

// NewServer creates the metrics and probe listener. ready may be nil, in
// which case /readyz always succeeds.
func NewServer(addr string, ready ReadyFunc) *Server {
	s := &Server{addr: addr, ready: ready}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// handleHealthz reports process liveness only.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleReadyz reports readiness. It flips to 503 during startup and once
// shutdown begins, so orchestrators stop routing before the listeners close.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil && !s.ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Start starts the listener in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Str("component", "observability").Str("addr", s.addr).Msg("Starting metrics and probe listener")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Str("addr", s.addr).Msg("Metrics and probe listener error")
		}
	}()
}

// Shutdown gracefully shuts down the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Str("component", "observability").Msg("Shutting down metrics and probe listener")
	return s.server.Shutdown(ctx)
}
