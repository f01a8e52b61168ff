package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const dateOnly = "2006-01-02"

// parseIntParam reads an optional integer query parameter,
// returning def when absent.
func parseIntParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

// parseBoundedIntParam is parseIntParam with a 1..max range check
// on present values. Absence still returns def, so an explicit 0
// is rejected instead of silently mapping to the default.
func parseBoundedIntParam(
	r *http.Request, name string, def, max int,
) (int, error) {
	if r.URL.Query().Get(name) == "" {
		return def, nil
	}
	v, err := parseIntParam(r, name, def)
	if err != nil {
		return 0, err
	}
	if v < 1 || v > max {
		return 0, fmt.Errorf("%s must be between 1 and %d", name, max)
	}
	return v, nil
}

// parseDateParam reads an optional YYYY-MM-DD query parameter in
// the given location. Absent parameters return the zero time.
func parseDateParam(
	r *http.Request, name string, loc *time.Location,
) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateOnly, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: want YYYY-MM-DD", name, raw)
	}
	return t, nil
}

// requestLocation validates the optional timezone parameter and
// resolves it, defaulting to the configured zone.
func (s *Server) requestLocation(r *http.Request) (string, *time.Location, error) {
	tz := r.URL.Query().Get("timezone")
	if tz == "" {
		tz = s.cfg.Timezone
	}
	if tz == "" {
		return "UTC", time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", nil, fmt.Errorf("unknown timezone %q", tz)
	}
	return tz, loc, nil
}
