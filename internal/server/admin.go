package server

import (
	"log"
	"net/http"

	"github.com/studyview/studyview/internal/importer"
	"github.com/studyview/studyview/internal/timeutil"
)

// importStatus reports the importer's most recent run.
type importStatus struct {
	Enabled    bool            `json:"enabled"`
	LastImport *string         `json:"last_import"`
	LastStats  *importer.Stats `json:"last_stats,omitempty"`
}

// handleTriggerImport runs a full import scan synchronously and
// reports its outcome. Concurrent triggers serialize inside the
// engine.
func (s *Server) handleTriggerImport(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "import directory not configured")
		return
	}
	stats := s.engine.ImportAll()
	writeSuccess(w, stats)
}

func (s *Server) handleImportStatus(w http.ResponseWriter, _ *http.Request) {
	status := importStatus{Enabled: s.engine != nil}
	if s.engine != nil {
		if last := s.engine.LastImport(); !last.IsZero() {
			status.LastImport = timeutil.Ptr(last)
			stats := s.engine.LastStats()
			status.LastStats = &stats
		}
	}
	writeSuccess(w, status)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetStats(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("getting stats: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeSuccess(w, stats)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("listing users: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeSuccess(w, map[string]any{"users": users, "count": len(users)})
}
