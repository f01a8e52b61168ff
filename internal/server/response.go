package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/studyview/studyview/internal/report"
	"github.com/studyview/studyview/internal/timeutil"
)

// envelope is the success shape shared by every API response.
type envelope struct {
	Status      string `json:"status"`
	Data        any    `json:"data"`
	GeneratedAt string `json:"generated_at"`
}

// writeJSON writes v as JSON with the given HTTP status code.
// Logs a warning if JSON encoding fails.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encoding response: %v", err)
	}
}

// writeSuccess wraps data in the standard success envelope with a
// UTC generation timestamp.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{
		Status:      "success",
		Data:        data,
		GeneratedAt: timeutil.Format(time.Now()),
	})
}

// writeError writes a JSON error response with the given status
// and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// handleContextError detects context.Canceled and
// context.DeadlineExceeded errors, returning true so the
// caller stops processing. It does NOT write an HTTP
// response; the withTimeout middleware handles that via
// http.TimeoutHandler (503). Writing here would race with
// the middleware's buffered response.
func handleContextError(_ http.ResponseWriter, err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// writeReportError maps a report service error onto the wire:
// validation failures become a 400 with the offending detail,
// everything else is logged and hidden behind a generic 500.
func writeReportError(w http.ResponseWriter, err error) {
	if handleContextError(w, err) {
		return
	}
	if report.IsValidation(err) {
		msg := strings.TrimPrefix(err.Error(), report.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	log.Printf("report error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
