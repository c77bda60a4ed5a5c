// Package http exposes the inference pipelines and analytics over a JSON
// HTTP API.
package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"health-assist-inference-service/internal/observability/metrics"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware(h.metrics))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Get("/lb-health", h.LBHealth)

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/send-message", h.SendMessage)
			r.Post("/upload-image", h.UploadImage)
			r.Post("/send-audio", h.SendAudio)
		})
		r.Route("/analytics", func(r chi.Router) {
			r.Post("/smart-analysis", h.SmartAnalysis)
			r.Post("/sentiment", h.Sentiment)
			r.Post("/predictions", h.Predictions)
		})
	})

	return r
}

// metricsMiddleware records per-route request counts and latency.
func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(route, strconv.Itoa(ww.Status()), time.Since(start).Seconds())
		})
	}
}
