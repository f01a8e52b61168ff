package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/studyview/studyview/internal/config"
	"github.com/studyview/studyview/internal/importer"
	"github.com/studyview/studyview/internal/report"
	"github.com/studyview/studyview/internal/store"
)

// VersionInfo holds build-time version metadata.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Server is the HTTP server exposing the analytics REST API.
type Server struct {
	mu      sync.RWMutex
	cfg     config.Config
	store   *store.Store
	reports *report.Service
	engine  *importer.Engine
	mux     *http.ServeMux
	httpSrv *http.Server
	version VersionInfo

	// handlerDelay is injected before each timeout-wrapped
	// handler, used only by tests to guarantee handlers
	// exceed a short timeout. Zero in production.
	handlerDelay time.Duration
}

// New creates a new Server. The import engine may be nil when
// the server runs without a configured import directory.
func New(
	cfg config.Config, st *store.Store, reports *report.Service,
	engine *importer.Engine, opts ...Option,
) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		reports: reports,
		engine:  engine,
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the build-time version metadata.
func WithVersion(v VersionInfo) Option {
	return func(s *Server) { s.version = v }
}

func (s *Server) routes() {
	s.mux.Handle("GET /api/v1/analytics/weekly", s.withTimeout(s.requireUser(s.handleWeekly)))
	s.mux.Handle("GET /api/v1/analytics/trends", s.withTimeout(s.requireUser(s.handleTrends)))
	s.mux.Handle("GET /api/v1/analytics/productivity", s.withTimeout(s.requireUser(s.handleProductivity)))
	s.mux.Handle("GET /api/v1/analytics/summary", s.withTimeout(s.requireUser(s.handleSummary)))
	s.mux.Handle(
		"GET /api/v1/analytics/charts/{chart_type}",
		s.withTimeout(s.requireUser(s.handleChart)),
	)
	s.mux.Handle("POST /api/v1/analytics/analyze", s.withTimeout(s.handleAnalyze))
	s.mux.Handle("GET /api/v1/analytics/goals", s.withTimeout(s.requireUser(s.handleGetGoals)))
	s.mux.Handle("POST /api/v1/analytics/goals", s.withTimeout(s.requireUser(s.handleSetGoals)))

	// Export: no timeout handler to support large downloads and
	// avoid buffering.
	s.mux.Handle(
		"GET /api/v1/analytics/export",
		http.HandlerFunc(s.requireUser(s.handleExport)),
	)

	// Import can scan many files; it manages its own duration.
	s.mux.HandleFunc("POST /api/v1/import", s.handleTriggerImport)
	s.mux.Handle("GET /api/v1/import/status", s.withTimeout(s.handleImportStatus))

	s.mux.Handle("GET /api/v1/stats", s.withTimeout(s.handleGetStats))
	s.mux.Handle("GET /api/v1/users", s.withTimeout(s.handleListUsers))
	s.mux.Handle("GET /api/v1/version", s.withTimeout(s.handleGetVersion))
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

func (s *Server) handleGetVersion(
	w http.ResponseWriter, _ *http.Request,
) {
	writeJSON(w, http.StatusOK, s.version)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "studyview",
		"version": s.version.Version,
	})
}

// SetPort updates the listen port (for testing).
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Port = port
}

// Handler returns the http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(logMiddleware(s.mux))
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()
	log.Printf("Starting server at http://%s", addr)
	return srv.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.httpSrv
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// FindAvailablePort finds an available port starting from the
// given port, binding to the specified host.
func FindAvailablePort(host string, start int) int {
	for port := start; port < start+100; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			ln.Close()
			return port
		}
	}
	return start
}
