package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/covid-trends/internal/domain"
	"github.com/couchcryptid/covid-trends/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TableProvider yields the memoized clean table for a source key.
type TableProvider interface {
	Table(key string) (domain.CleanTable, error)
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the read-only case-trends API plus health, readiness, and
// metrics endpoints. Every /api request recomputes its derived series from
// the memoized table; aggregation is pure and side-effect-free, so requests
// are independent and idempotent.
type Server struct {
	httpServer *http.Server
	tables     TableProvider
	dataKey    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the HTTP server. dataKey identifies the source the API
// serves; it is resolved through the provider on every request and hits the
// store's cache after the first load.
func NewServer(addr string, tables TableProvider, ready ReadinessChecker, dataKey string, logger *slog.Logger, metrics *observability.Metrics) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		tables:  tables,
		dataKey: dataKey,
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/regions", s.handleRegions)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/latest", s.handleLatest)

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

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	table, ok := s.table(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"regions": table.Regions()})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	table, ok := s.table(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.aggregate(r, table))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	table, ok := s.table(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.aggregate(r, table).Summary())
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	table, ok := s.table(w)
	if !ok {
		return
	}
	series := s.aggregate(r, table)

	resp := map[string]any{
		"region": series.Region,
		"rows":   series.Latest(),
	}
	// For the all-regions view, include the per-region snapshot at the
	// maximum date alongside the aggregated row.
	if series.Region == domain.RegionAll {
		resp["by_region"] = table.LatestRows()
	}
	writeJSON(w, http.StatusOK, resp)
}

// aggregate recomputes the derived series for the request's region filter.
// An unknown region is not an error: the series is empty and every derived
// metric reads as zero.
func (s *Server) aggregate(r *http.Request, table domain.CleanTable) domain.DerivedSeries {
	region := domain.RegionAll
	if q := r.URL.Query().Get("region"); q != "" {
		region = domain.RegionFilter(q)
	}

	start := time.Now()
	series := domain.Aggregate(table, region)
	s.metrics.AggregateDuration.Observe(time.Since(start).Seconds())
	s.metrics.DeltaClips.Add(float64(len(series.Corrections)))

	outcome := "ok"
	if len(series.Rows) == 0 {
		outcome = "empty"
	}
	s.metrics.AggregateRequests.WithLabelValues(outcome).Inc()

	return series
}

func (s *Server) table(w http.ResponseWriter) (domain.CleanTable, bool) {
	table, err := s.tables.Table(s.dataKey)
	if err != nil {
		s.logger.Error("dataset unavailable", "error", err, "key", s.dataKey)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "dataset unavailable"})
		return domain.CleanTable{}, false
	}
	return table, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
