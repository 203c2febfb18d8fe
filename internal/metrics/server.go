package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hermes/pkg/logger"
)

// Server exposes /metrics for Prometheus scraping.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer creates a metrics server on the given address.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.Get().With("component", "metrics_server"),
	}
}

// Start begins serving on a background goroutine and returns immediately,
// so startup can proceed to the scheduler and the stream consumer.
func (s *Server) Start() {
	go func() {
		s.log.Infow("Metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorw("Metrics server stopped", "error", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
