package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/studyview/studyview/internal/analytics"
	"github.com/studyview/studyview/internal/report"
	"github.com/studyview/studyview/internal/store"
)

// maxBodyBytes bounds request bodies on the write endpoints.
const maxBodyBytes = 1 << 20

func (s *Server) handleWeekly(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	tz, loc, err := s.requestLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	weekStart, err := parseDateParam(r, "week_start", loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Weekly(r.Context(), report.Query{
		UserID:    userID,
		Timezone:  tz,
		WeekStart: weekStart,
	})
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, rep)
}

func (s *Server) handleTrends(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	tz, _, err := s.requestLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	months, err := parseBoundedIntParam(r, "months", 0, analytics.MaxTrendMonths)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Trends(r.Context(), report.Query{
		UserID:   userID,
		Timezone: tz,
		Months:   months,
	})
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, rep)
}

func (s *Server) handleProductivity(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	tz, _, err := s.requestLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := parseBoundedIntParam(r, "period_days", 0, report.MaxPeriodDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Productivity(r.Context(), report.Query{
		UserID:     userID,
		Timezone:   tz,
		PeriodDays: days,
	})
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, rep)
}

func (s *Server) handleSummary(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	tz, loc, err := s.requestLocation(r)
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

	rep, err := s.reports.Summary(r.Context(), report.Query{
		UserID:   userID,
		Timezone: tz,
		From:     from,
		To:       to,
	})
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, rep)
}

func (s *Server) handleChart(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	tz, _, err := s.requestLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	days, err := parseBoundedIntParam(r, "period_days", 0, report.MaxPeriodDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	chart, err := s.reports.Chart(r.Context(), report.Query{
		UserID:     userID,
		Timezone:   tz,
		PeriodDays: days,
	}, r.PathValue("chart_type"))
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, chart)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req report.AnalyzeRequest
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		req.UserID = userID
	} else if req.UserID != userID {
		writeError(w, http.StatusForbidden, "access denied to requested user data")
		return
	}
	if req.Timezone == "" {
		req.Timezone = s.cfg.Timezone
	}

	result, err := s.reports.Analyze(r.Context(), req)
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, result)
}

func (s *Server) handleGetGoals(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	tz, _, err := s.requestLocation(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := s.reports.Goals(r.Context(), report.Query{
		UserID:   userID,
		Timezone: tz,
	})
	if err != nil {
		writeReportError(w, err)
		return
	}
	writeSuccess(w, rep)
}

// goalUpdate is the POST goals request body. Omitted fields keep
// their stored value.
type goalUpdate struct {
	DailyMinutes   *int `json:"daily_minutes"`
	WeeklyMinutes  *int `json:"weekly_minutes"`
	MonthlyMinutes *int `json:"monthly_minutes"`
}

func (s *Server) handleSetGoals(
	w http.ResponseWriter, r *http.Request, userID string,
) {
	var upd goalUpdate
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	current, err := s.store.GetGoals(r.Context(), userID)
	if err != nil {
		log.Printf("loading goals: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	apply := func(field string, dst *int, v *int) bool {
		if v == nil {
			return true
		}
		if *v <= 0 {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("%s must be a positive integer", field))
			return false
		}
		*dst = *v
		return true
	}
	if !apply("daily_minutes", &current.DailyMinutes, upd.DailyMinutes) ||
		!apply("weekly_minutes", &current.WeeklyMinutes, upd.WeeklyMinutes) ||
		!apply("monthly_minutes", &current.MonthlyMinutes, upd.MonthlyMinutes) {
		return
	}

	if err := s.store.SetGoals(store.GoalSettings{
		UserID:         userID,
		DailyMinutes:   current.DailyMinutes,
		WeeklyMinutes:  current.WeeklyMinutes,
		MonthlyMinutes: current.MonthlyMinutes,
	}); err != nil {
		log.Printf("saving goals: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	// Progress reports for this user embed the old targets.
	s.reports.InvalidateUser(userID)

	saved, err := s.store.GetGoals(r.Context(), userID)
	if err != nil {
		log.Printf("reloading goals: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeSuccess(w, saved)
}
