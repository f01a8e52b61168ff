package report

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/studyview/studyview/internal/analytics"
)

// Analysis types accepted by Analyze.
const (
	AnalysisWeekly       = "weekly"
	AnalysisMonthly      = "monthly"
	AnalysisProductivity = "productivity"
)

// AnalyzeRequest is the custom-analysis request body. Filters is
// a free-form object probed for an optional subjects allowlist
// and min/max duration bounds in minutes.
type AnalyzeRequest struct {
	UserID       string          `json:"user_id"`
	AnalysisType string          `json:"analysis_type"`
	StartDate    string          `json:"start_date,omitempty"`
	EndDate      string          `json:"end_date,omitempty"`
	Timezone     string          `json:"timezone,omitempty"`
	Filters      json.RawMessage `json:"filters,omitempty"`
}

// AnalysisResult wraps one analysis run.
type AnalysisResult struct {
	RequestID    string `json:"request_id"`
	UserID       string `json:"user_id"`
	AnalysisType string `json:"analysis_type"`
	GeneratedAt  string `json:"generated_at"`
	Data         any    `json:"data"`
}

// sessionPredicate narrows the sessions a custom analysis sees.
type sessionPredicate func(analytics.Session) bool

// parseFilters probes the filters object with gjson so unknown
// keys pass through harmlessly.
func parseFilters(raw []byte) (sessionPredicate, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if !gjson.ValidBytes(raw) {
		return nil, validationf("filters is not valid JSON")
	}
	var preds []sessionPredicate

	if subjects := gjson.GetBytes(raw, "subjects"); subjects.Exists() {
		if !subjects.IsArray() {
			return nil, validationf("filters.subjects must be an array")
		}
		allow := make(map[string]bool)
		for _, v := range subjects.Array() {
			allow[v.String()] = true
		}
		preds = append(preds, func(s analytics.Session) bool { return allow[s.Subject] })
	}
	if v := gjson.GetBytes(raw, "min_duration"); v.Exists() {
		minMinutes := int(v.Int())
		preds = append(preds, func(s analytics.Session) bool { return s.Minutes >= minMinutes })
	}
	if v := gjson.GetBytes(raw, "max_duration"); v.Exists() {
		maxMinutes := int(v.Int())
		preds = append(preds, func(s analytics.Session) bool { return s.Minutes <= maxMinutes })
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return func(s analytics.Session) bool {
		for _, p := range preds {
			if !p(s) {
				return false
			}
		}
		return true
	}, nil
}

// filteredSource narrows an underlying source by a predicate.
type filteredSource struct {
	inner SessionSource
	keep  sessionPredicate
}

func (f filteredSource) SessionsFor(ctx context.Context, userID string, from, to time.Time) ([]analytics.Session, error) {
	sessions, err := f.inner.SessionsFor(ctx, userID, from, to)
	if err != nil || f.keep == nil {
		return sessions, err
	}
	out := make([]analytics.Session, 0, len(sessions))
	for _, s := range sessions {
		if f.keep(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Analyze runs one named analysis over an optional date range and
// filter set. The range maps onto each kind's native window: the
// week containing start_date, the months from start_date through
// now, or the trailing days from start_date through today.
// Filtered runs bypass the cache.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisResult, error) {
	if req.UserID == "" {
		return AnalysisResult{}, validationf("user_id is required")
	}
	keep, err := parseFilters(req.Filters)
	if err != nil {
		return AnalysisResult{}, err
	}
	loc := Query{Timezone: req.Timezone}.location()

	var start, end time.Time
	if req.StartDate != "" {
		start, err = time.ParseInLocation("2006-01-02", req.StartDate, loc)
		if err != nil {
			return AnalysisResult{}, validationf("bad start_date %q: want YYYY-MM-DD", req.StartDate)
		}
	}
	if req.EndDate != "" {
		end, err = time.ParseInLocation("2006-01-02", req.EndDate, loc)
		if err != nil {
			return AnalysisResult{}, validationf("bad end_date %q: want YYYY-MM-DD", req.EndDate)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return AnalysisResult{}, validationf("start_date %s is after end_date %s", req.StartDate, req.EndDate)
	}

	// Unfiltered runs share the service cache. Filters change
	// the result, so those runs go through an uncached service
	// over the narrowed source.
	run := s
	if keep != nil {
		run = &Service{
			source:  filteredSource{inner: s.source, keep: keep},
			goals:   s.goals,
			baseTTL: s.baseTTL,
			now:     s.now,
		}
	}

	now := s.now().In(loc)
	q := Query{UserID: req.UserID, Timezone: req.Timezone, WeekStart: start}
	var data any
	switch req.AnalysisType {
	case AnalysisWeekly:
		data, err = run.Weekly(ctx, q)
	case AnalysisMonthly:
		q.Months = monthsCovering(start, now)
		data, err = run.Trends(ctx, q)
	case AnalysisProductivity:
		q.PeriodDays = daysCovering(start, now)
		data, err = run.Productivity(ctx, q)
	default:
		return AnalysisResult{}, validationf("unknown analysis type %q", req.AnalysisType)
	}
	if err != nil {
		return AnalysisResult{}, err
	}

	return AnalysisResult{
		RequestID:    "req_" + uuid.NewString(),
		UserID:       req.UserID,
		AnalysisType: req.AnalysisType,
		GeneratedAt:  s.now().UTC().Format(time.RFC3339),
		Data:         data,
	}, nil
}

// monthsCovering counts calendar months from start's month
// through now's, clamped to the trend bounds. Zero start selects
// the default window.
func monthsCovering(start, now time.Time) int {
	if start.IsZero() {
		return 0
	}
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month()) + 1
	if months < 1 {
		months = 1
	}
	if months > analytics.MaxTrendMonths {
		months = analytics.MaxTrendMonths
	}
	return months
}

// daysCovering counts inclusive days from start through today.
// Zero start selects the default window. Rounding absorbs DST
// days that are not 24 hours long.
func daysCovering(start, now time.Time) int {
	if start.IsZero() {
		return 0
	}
	hours := analytics.DayStart(now).Sub(analytics.DayStart(start)).Hours()
	days := int(math.Round(hours/24)) + 1
	if days < 1 {
		days = 1
	}
	if days > MaxPeriodDays {
		days = MaxPeriodDays
	}
	return days
}
