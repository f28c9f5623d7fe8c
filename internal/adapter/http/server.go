// Package http exposes the service API plus health, readiness, and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/astronuts/neo-data-etl/internal/domain"
)

const dateLayout = "2006-01-02"

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// AsteroidReader serves the stored nested projections.
type AsteroidReader interface {
	GetAsteroidByID(ctx context.Context, id string) (domain.AsteroidView, error)
	ListAllNormalized(ctx context.Context) ([]domain.AsteroidView, error)
}

// Ingestor runs a fetch-normalize-store batch for a date window.
type Ingestor interface {
	IngestRange(ctx context.Context, start, end time.Time) (domain.IngestReport, error)
}

// FeedFetcher serves the live (non-storing) feed path.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, start, end time.Time) (domain.FeedResponse, error)
}

// Reporter builds the text summary for one asteroid view.
type Reporter interface {
	BuildReport(ctx context.Context, view domain.AsteroidView) (string, error)
}

// Deps bundles the collaborators behind the API routes. Fetcher and
// Reporter may be nil; their routes then answer 503.
type Deps struct {
	Ready    ReadinessChecker
	Store    AsteroidReader
	Ingestor Ingestor
	Fetcher  FeedFetcher
	Reporter Reporter
}

// Server exposes the asteroid API over HTTP.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(deps.Ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/asteroids", s.handleListAsteroids)
	mux.HandleFunc("GET /api/v1/asteroids/{id}", s.handleGetAsteroid)
	mux.HandleFunc("GET /api/v1/asteroids/{id}/summary", s.handleSummary)
	mux.HandleFunc("POST /api/v1/ingest", s.handleIngest)
	mux.HandleFunc("GET /api/v1/feed", s.handleFeed)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleListAsteroids(w http.ResponseWriter, r *http.Request) {
	views, err := s.deps.Store.ListAllNormalized(r.Context())
	if err != nil {
		s.logger.Error("list asteroids failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list asteroids failed")
		return
	}
	if views == nil {
		views = []domain.AsteroidView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetAsteroid(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	view, err := s.deps.Store.GetAsteroidByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("asteroid %s not found", id))
		return
	}
	if err != nil {
		s.logger.Error("get asteroid failed", "asteroid_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get asteroid failed")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reporter == nil {
		writeError(w, http.StatusServiceUnavailable, "report generation is not configured")
		return
	}
	id := r.PathValue("id")

	view, err := s.deps.Store.GetAsteroidByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("asteroid %s not found", id))
		return
	}
	if err != nil {
		s.logger.Error("get asteroid failed", "asteroid_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get asteroid failed")
		return
	}

	text, err := s.deps.Reporter.BuildReport(r.Context(), view)
	if err != nil {
		s.logger.Error("build report failed", "asteroid_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "build report failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "summary": text})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.deps.Ingestor.IngestRange(r.Context(), start, end)
	switch {
	case errors.Is(err, domain.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstream):
		s.logger.Error("ingest fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	case err != nil:
		s.logger.Error("ingest failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.deps.Fetcher == nil {
		writeError(w, http.StatusServiceUnavailable, "catalog fetching is not configured")
		return
	}

	start, end, err := parseDateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	feed, err := s.deps.Fetcher.FetchFeed(r.Context(), start, end)
	switch {
	case errors.Is(err, domain.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("feed fetch failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	// Live summary view: normalized but not stored.
	result := domain.NormalizeFeed(feed)
	summaries := make([]domain.Summary, len(result.Records))
	for i, rec := range result.Records {
		summaries[i] = rec.Summary()
	}
	writeJSON(w, http.StatusOK, summaries)
}

func parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	start, err := time.Parse(dateLayout, q.Get("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, q.Get("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end_date must be YYYY-MM-DD")
	}
	return start, end, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
