package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// TableReader serves the tables of the latest run.
type TableReader interface {
	Regions() []string
	Table(region string) (domain.RegionTable, bool)
}

// PageRenderer renders a region table as an HTML page.
type PageRenderer interface {
	Render(w io.Writer, t domain.RegionTable) error
}

// Server exposes health, readiness, metrics, and read-only region endpoints.
type Server struct {
	httpServer *http.Server
	tables     TableReader
	pages      PageRenderer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /regions routes. pages may be nil to disable the chart route.
func NewServer(addr string, ready sharedobs.ReadinessChecker, tables TableReader, pages PageRenderer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		tables: tables,
		pages:  pages,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /regions", s.handleRegions)
	mux.HandleFunc("GET /regions/{name}", s.handleTable)
	mux.HandleFunc("GET /regions/{name}/table", s.handleText)
	if pages != nil {
		mux.HandleFunc("GET /regions/{name}/chart", s.handleChart)
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

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"regions": s.tables.Regions()})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, t)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	if _, err := t.WriteTo(w); err != nil {
		s.logger.Warn("write region table failed", "region", t.Region, "error", err)
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	t, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.Render(w, t); err != nil {
		s.logger.Warn("render region chart failed", "region", t.Region, "error", err)
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.RegionTable, bool) {
	name := r.PathValue("name")
	t, ok := s.tables.Table(name)
	if !ok {
		sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown region " + name})
		return domain.RegionTable{}, false
	}
	return t, true
}
