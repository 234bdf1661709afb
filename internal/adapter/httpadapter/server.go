package httpadapter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/forecast-features-etl/internal/domain"
	"github.com/couchcryptid/forecast-features-etl/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxScoreBody = 1 << 20

// Scorer scores one forecast row. *pipeline.FeatureExtractor implements it.
type Scorer interface {
	Extract(row domain.ForecastRow) domain.ScoredRow
}

// Server exposes health, readiness, metrics, and on-demand scoring endpoints.
type Server struct {
	httpServer *http.Server
	scorer     Scorer
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// POST /score routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, scorer Scorer, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scorer:  scorer,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /score", s.handleScore)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleScore accepts one {"date","source","forecast"} object and responds
// with its scored row.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxScoreBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.reject(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		s.reject(w, http.StatusBadRequest, err)
		return
	}

	row, err := domain.ParseRawEvent(domain.RawEvent{Value: body})
	if err != nil {
		s.reject(w, http.StatusBadRequest, err)
		return
	}

	scored := s.scorer.Extract(row)
	s.metrics.ScoreRequests.WithLabelValues("success").Inc()
	sharedobs.WriteJSON(w, http.StatusOK, scored.Payload())
}

func (s *Server) reject(w http.ResponseWriter, status int, err error) {
	s.logger.Debug("score request rejected", "status", status, "error", err)
	s.metrics.ScoreRequests.WithLabelValues("malformed").Inc()
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
