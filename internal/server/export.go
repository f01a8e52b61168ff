package server

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/studyview/studyview/internal/analytics"
	"github.com/studyview/studyview/internal/store"
	"github.com/studyview/studyview/internal/timeutil"
)

// handleExport streams the user's raw sessions as a JSON or CSV
// download. An open date range exports everything.
func (s *Server) handleExport(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported format %q: want json or csv", format))
		return
	}

	_, loc, err := s.requestLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseDateParam(r, "start_date", loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDateParam(r, "end_date", loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		writeError(w, http.StatusBadRequest, "start_date is after end_date")
		return
	}

	filter := store.SessionFilter{
		UserID:  userID,
		Subject: r.URL.Query().Get("subject"),
	}
	if !from.IsZero() {
		filter.From = timeutil.Format(analytics.DayStart(from))
	}
	if !to.IsZero() {
		filter.To = timeutil.Format(analytics.DayStart(to).AddDate(0, 0, 1))
	}

	sessions, err := s.store.ListSessions(r.Context(), filter)
	if err != nil {
		if handleContextError(w, err) {
			return
		}
		log.Printf("export: listing sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	stamp := time.Now().UTC().Format("20060102")
	disposition := fmt.Sprintf(
		"attachment; filename=studyview_export_%s.%s", stamp, format,
	)
	w.Header().Set("Content-Disposition", disposition)

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		writeSessionsCSV(w, sessions)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sessions); err != nil {
		log.Printf("export: encoding JSON: %v", err)
	}
}

func writeSessionsCSV(w http.ResponseWriter, sessions []store.StudySession) {
	cw := csv.NewWriter(w)
	header := []string{
		"session_id", "user_id", "subject", "started_at", "ended_at",
		"duration_minutes", "satisfaction", "tags",
	}
	if err := cw.Write(header); err != nil {
		log.Printf("export: writing CSV header: %v", err)
		return
	}
	for _, sess := range sessions {
		ended := ""
		if sess.EndedAt != nil {
			ended = *sess.EndedAt
		}
		satisfaction := ""
		if sess.Satisfaction != nil {
			satisfaction = strconv.Itoa(*sess.Satisfaction)
		}
		row := []string{
			sess.ID, sess.UserID, sess.Subject, sess.StartedAt, ended,
			strconv.Itoa(sess.Minutes), satisfaction,
			strings.Join(sess.Tags, ";"),
		}
		if err := cw.Write(row); err != nil {
			log.Printf("export: writing CSV row: %v", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Printf("export: flushing CSV: %v", err)
	}
}
