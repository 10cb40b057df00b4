// Package http serves the dashboard page, the district data APIs, and the
// operational endpoints.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

//go:embed dashboard.html
var dashboardHTML []byte

// SnapshotSource provides the latest pipeline snapshot and readiness state.
type SnapshotSource interface {
	Snapshot() *domain.Snapshot
	CheckReadiness(ctx context.Context) error
}

// Server exposes the dashboard, data APIs, and health/metrics endpoints.
type Server struct {
	httpServer *http.Server
	source     SnapshotSource
	logger     *slog.Logger
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(addr string, source SnapshotSource, logger *slog.Logger) *Server {
	s := &Server{
		source: source,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/districts", s.handleDistricts)
		r.Get("/areas", s.handleAreas)
		r.Get("/stats", s.handleStats)
		r.Get("/heatmap.geojson", s.handleHeatmap)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
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

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(dashboardHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.source.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// districtFilter holds the query parameters shared by the data endpoints.
type districtFilter struct {
	minPrice float64
	maxPrice float64
	area     string
}

func parseFilter(r *http.Request) (districtFilter, error) {
	var f districtFilter
	var err error
	if f.minPrice, err = parsePriceParam(r, "min_price"); err != nil {
		return f, err
	}
	if f.maxPrice, err = parsePriceParam(r, "max_price"); err != nil {
		return f, err
	}
	f.area = r.URL.Query().Get("area")
	return f, nil
}

func parsePriceParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, &badParamError{name: name, value: raw}
	}
	return v, nil
}

type badParamError struct {
	name  string
	value string
}

func (e *badParamError) Error() string {
	return "invalid " + e.name + ": " + e.value
}

// withSnapshot runs the handler against the current snapshot, answering 503
// before the first pipeline run and 400 on bad filter parameters.
func (s *Server) withSnapshot(w http.ResponseWriter, r *http.Request, fn func(snapshot *domain.Snapshot, f districtFilter)) {
	snapshot := s.source.Snapshot()
	if snapshot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot available yet"})
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	fn(snapshot, f)
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snapshot *domain.Snapshot, f districtFilter) {
		records := domain.FilterRecords(snapshot.Records, f.minPrice, f.maxPrice, f.area)
		districts := domain.AggregateByDistrict(records)
		writeJSON(w, http.StatusOK, map[string]any{
			"snapshot_id":  snapshot.ID,
			"generated_at": snapshot.GeneratedAt,
			"count":        len(districts),
			"districts":    districts,
		})
	})
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snapshot *domain.Snapshot, _ districtFilter) {
		writeJSON(w, http.StatusOK, map[string]any{
			"areas": domain.Areas(snapshot.Records),
		})
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snapshot *domain.Snapshot, f districtFilter) {
		records := domain.FilterRecords(snapshot.Records, f.minPrice, f.maxPrice, f.area)
		writeJSON(w, http.StatusOK, map[string]any{
			"snapshot_id":  snapshot.ID,
			"generated_at": snapshot.GeneratedAt,
			"stats":        domain.Summarize(records),
			"geocoding":    snapshot.Geocoding,
		})
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	s.withSnapshot(w, r, func(snapshot *domain.Snapshot, f districtFilter) {
		records := domain.FilterRecords(snapshot.Records, f.minPrice, f.maxPrice, f.area)
		districts := domain.AggregateByDistrict(records)
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(BuildHeatmap(districts))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
