package report

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/studyview/studyview/internal/analytics"
	"github.com/studyview/studyview/internal/store"
)

// Caps for ranked subject lists.
const (
	weeklyTopSubjects  = 5
	summaryTopSubjects = 3
)

// defaultSummaryDays is the trailing window used when a summary
// request names no explicit range.
const defaultSummaryDays = 90

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// dateKey renders a local midnight as its calendar date.
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeeklyReport is the weekly analytics payload: fixed 7-day shape
// Monday through Sunday plus a comparison against the week before.
type WeeklyReport struct {
	UserID            string                     `json:"user_id"`
	WeekStart         string                     `json:"week_start"`
	WeekEnd           string                     `json:"week_end"`
	Timezone          string                     `json:"timezone"`
	TotalMinutes      int                        `json:"total_duration"`
	SessionCount      int                        `json:"session_count"`
	AvgSessionMinutes float64                    `json:"average_session_duration"`
	Consistency       float64                    `json:"study_consistency"`
	DailySummaries    []analytics.DailySummary   `json:"daily_summaries"`
	TopSubjects       []analytics.SubjectStat    `json:"top_subjects"`
	Comparison        analytics.PeriodComparison `json:"comparison_with_previous_week"`
}

// Weekly builds the report for the week containing q.WeekStart
// (the current week when zero). Any anchor inside the week works;
// it is normalized back to Monday.
func (s *Service) Weekly(ctx context.Context, q Query) (WeeklyReport, error) {
	if q.UserID == "" {
		return WeeklyReport{}, validationf("user_id is required")
	}
	loc := q.location()
	anchor := q.WeekStart
	if anchor.IsZero() {
		anchor = s.now()
	}
	weekStart := analytics.MondayOf(anchor.In(loc))
	weekEnd := weekStart.AddDate(0, 0, 7)
	prevStart := weekStart.AddDate(0, 0, -7)

	key := cacheKey(q.UserID, "weekly", dateKey(weekStart), loc.String())
	if v, ok := s.cached(key); ok {
		if r, ok := v.(WeeklyReport); ok {
			return r, nil
		}
	}

	sessions, err := s.source.SessionsFor(ctx, q.UserID, prevStart, weekEnd)
	if err != nil {
		return WeeklyReport{}, err
	}

	// One fetch covers both weeks; split by start time.
	assigned := analytics.AssignSessions([]analytics.Window{
		{Start: prevStart, End: weekStart},
		{Start: weekStart, End: weekEnd},
	}, sessions)
	prev, cur := assigned[0], assigned[1]

	totals := analytics.Totals(cur)
	r := WeeklyReport{
		UserID:            q.UserID,
		WeekStart:         dateKey(weekStart),
		WeekEnd:           dateKey(weekStart.AddDate(0, 0, 6)),
		Timezone:          loc.String(),
		TotalMinutes:      totals.TotalMinutes,
		SessionCount:      totals.SessionCount,
		AvgSessionMinutes: totals.AvgSessionMinutes,
		Consistency:       analytics.ConsistencyScore(analytics.CountActiveDays(cur, loc), 7),
		DailySummaries:    analytics.DailySummaries(weekStart, 7, cur),
		TopSubjects:       analytics.TopSubjects(totals.Subjects, weeklyTopSubjects),
		Comparison:        analytics.Compare(analytics.Totals(prev), totals),
	}
	s.memoize(key, r, s.baseTTL)
	return r, nil
}

// TrendReport is the monthly trend payload, oldest month first.
type TrendReport struct {
	UserID   string                   `json:"user_id"`
	Months   int                      `json:"months"`
	Timezone string                   `json:"timezone"`
	Trends   []analytics.MonthlyTrend `json:"trends"`
}

// Trends builds month-over-month trends for the q.Months calendar
// months ending at the current one.
func (s *Service) Trends(ctx context.Context, q Query) (TrendReport, error) {
	if q.UserID == "" {
		return TrendReport{}, validationf("user_id is required")
	}
	if q.Months < 0 || q.Months > analytics.MaxTrendMonths {
		return TrendReport{}, validationf("months must be between 1 and %d", analytics.MaxTrendMonths)
	}
	loc := q.location()
	months := analytics.ClampTrendMonths(q.Months)
	now := s.now().In(loc)

	// The current month is part of the key so a cached window
	// never straddles a month rollover.
	key := cacheKey(q.UserID, "trends", strconv.Itoa(months), now.Format("2006-01"), loc.String())
	if v, ok := s.cached(key); ok {
		if r, ok := v.(TrendReport); ok {
			return r, nil
		}
	}

	start := analytics.MonthStart(now).AddDate(0, -(months - 1), 0)
	end := analytics.MonthStart(now).AddDate(0, 1, 0)
	sessions, err := s.source.SessionsFor(ctx, q.UserID, start, end)
	if err != nil {
		return TrendReport{}, err
	}

	r := TrendReport{
		UserID:   q.UserID,
		Months:   months,
		Timezone: loc.String(),
		Trends:   analytics.MonthlyTrends(sessions, months, now, loc),
	}
	s.memoize(key, r, trendsTTLFactor*s.baseTTL)
	return r, nil
}

// ProductivityReport wraps the habit metrics with the period they
// cover.
type ProductivityReport struct {
	UserID     string `json:"user_id"`
	PeriodDays int    `json:"period_days"`
	From       string `json:"from"`
	To         string `json:"to"`
	Timezone   string `json:"timezone"`
	analytics.ProductivityMetrics
}

// Productivity profiles study habits over the trailing
// q.PeriodDays days, today included.
func (s *Service) Productivity(ctx context.Context, q Query) (ProductivityReport, error) {
	if q.UserID == "" {
		return ProductivityReport{}, validationf("user_id is required")
	}
	if q.PeriodDays < 0 || q.PeriodDays > MaxPeriodDays {
		return ProductivityReport{}, validationf("period_days must be between 1 and %d", MaxPeriodDays)
	}
	loc := q.location()
	days := clampPeriodDays(q.PeriodDays)
	now := s.now().In(loc)
	end := analytics.DayStart(now).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)

	key := cacheKey(q.UserID, "productivity", strconv.Itoa(days), dateKey(start), loc.String())
	if v, ok := s.cached(key); ok {
		if r, ok := v.(ProductivityReport); ok {
			return r, nil
		}
	}

	sessions, err := s.source.SessionsFor(ctx, q.UserID, start, end)
	if err != nil {
		return ProductivityReport{}, err
	}

	r := ProductivityReport{
		UserID:              q.UserID,
		PeriodDays:          days,
		From:                dateKey(start),
		To:                  dateKey(end.AddDate(0, 0, -1)),
		Timezone:            loc.String(),
		ProductivityMetrics: analytics.Productivity(sessions, days, loc),
	}
	s.memoize(key, r, productivityTTLFactor*s.baseTTL)
	return r, nil
}

// SummaryPeriod is the resolved date range of a summary.
type SummaryPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Days      int    `json:"days"`
}

// SummaryTotals are the headline volume numbers.
type SummaryTotals struct {
	Minutes  int     `json:"minutes"`
	Hours    float64 `json:"hours"`
	Sessions int     `json:"sessions"`
}

// SummaryAverages are per-session and per-active-day averages.
type SummaryAverages struct {
	SessionMinutes   float64 `json:"session_minutes"`
	ActiveDayMinutes float64 `json:"active_day_minutes"`
}

// SummaryReport is the period overview payload.
type SummaryReport struct {
	UserID         string                  `json:"user_id"`
	Timezone       string                  `json:"timezone"`
	Period         SummaryPeriod           `json:"period"`
	Totals         SummaryTotals           `json:"totals"`
	Averages       SummaryAverages         `json:"averages"`
	ActiveDays     int                     `json:"active_days"`
	Streaks        analytics.Streaks       `json:"streaks"`
	TopSubjects    []analytics.SubjectStat `json:"top_subjects"`
	Consistency    float64                 `json:"study_consistency"`
	MostActiveHour *int                    `json:"most_active_hour"`
}

// Summary builds the period overview for the inclusive date range
// [q.From, q.To]. A zero range defaults to the trailing
// defaultSummaryDays days ending today.
func (s *Service) Summary(ctx context.Context, q Query) (SummaryReport, error) {
	if q.UserID == "" {
		return SummaryReport{}, validationf("user_id is required")
	}
	loc := q.location()
	now := s.now().In(loc)

	// A missing side of the range is filled in: open end runs to
	// today, open start covers the default trailing window.
	from, to := q.From, q.To
	if to.IsZero() {
		to = analytics.DayStart(now)
	} else {
		to = analytics.DayStart(to.In(loc))
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -(defaultSummaryDays - 1))
	} else {
		from = analytics.DayStart(from.In(loc))
	}
	if to.Before(from) {
		return SummaryReport{}, validationf("start_date %s is after end_date %s", dateKey(from), dateKey(to))
	}
	end := to.AddDate(0, 0, 1)
	days := int(math.Round(end.Sub(from).Hours() / 24))

	key := cacheKey(q.UserID, "summary", dateKey(from), dateKey(to), loc.String())
	if v, ok := s.cached(key); ok {
		if r, ok := v.(SummaryReport); ok {
			return r, nil
		}
	}

	sessions, err := s.source.SessionsFor(ctx, q.UserID, from, end)
	if err != nil {
		return SummaryReport{}, err
	}

	totals := analytics.Totals(sessions)
	activeDays := analytics.CountActiveDays(sessions, loc)
	avgActiveDay := 0.0
	if activeDays > 0 {
		avgActiveDay = round1(float64(totals.TotalMinutes) / float64(activeDays))
	}
	var mostActiveHour *int
	if peaks := analytics.PeakHours(sessions, loc); len(peaks) > 0 {
		h := peaks[0].Hour
		mostActiveHour = &h
	}

	r := SummaryReport{
		UserID:   q.UserID,
		Timezone: loc.String(),
		Period: SummaryPeriod{
			StartDate: dateKey(from),
			EndDate:   dateKey(to),
			Days:      days,
		},
		Totals: SummaryTotals{
			Minutes:  totals.TotalMinutes,
			Hours:    round1(float64(totals.TotalMinutes) / 60),
			Sessions: totals.SessionCount,
		},
		Averages: SummaryAverages{
			SessionMinutes:   totals.AvgSessionMinutes,
			ActiveDayMinutes: avgActiveDay,
		},
		ActiveDays:     activeDays,
		Streaks:        analytics.StreakStats(sessions, now, loc),
		TopSubjects:    analytics.TopSubjects(totals.Subjects, summaryTopSubjects),
		Consistency:    analytics.ConsistencyScore(activeDays, days),
		MostActiveHour: mostActiveHour,
	}
	s.memoize(key, r, s.baseTTL)
	return r, nil
}

// GoalPeriodProgress compares one period's activity against its
// target. The achievement rate is capped at 100.
type GoalPeriodProgress struct {
	Period           string  `json:"period"`
	TargetMinutes    int     `json:"target_minutes"`
	ActualMinutes    int     `json:"actual_minutes"`
	AchievementRate  float64 `json:"achievement_rate"`
	Achieved         bool    `json:"achieved"`
	RemainingMinutes int     `json:"remaining_minutes"`
}

// GoalReport is the goal progress payload for the current day,
// ISO week, and calendar month.
type GoalReport struct {
	UserID   string             `json:"user_id"`
	Timezone string             `json:"timezone"`
	Daily    GoalPeriodProgress `json:"daily"`
	Weekly   GoalPeriodProgress `json:"weekly"`
	Monthly  GoalPeriodProgress `json:"monthly"`
}

func goalProgress(period string, target, actual int) GoalPeriodProgress {
	p := GoalPeriodProgress{
		Period:        period,
		TargetMinutes: target,
		ActualMinutes: actual,
	}
	if target > 0 {
		rate := float64(actual) / float64(target) * 100
		if rate > 100 {
			rate = 100
		}
		p.AchievementRate = round1(rate)
		p.Achieved = actual >= target
	}
	if rem := target - actual; rem > 0 {
		p.RemainingMinutes = rem
	}
	return p
}

// Goals reports progress against the user's daily, weekly, and
// monthly targets as of now.
func (s *Service) Goals(ctx context.Context, q Query) (GoalReport, error) {
	if q.UserID == "" {
		return GoalReport{}, validationf("user_id is required")
	}
	loc := q.location()
	now := s.now().In(loc)
	dayStart := analytics.DayStart(now)
	weekStart := analytics.MondayOf(now)
	monthStart := analytics.MonthStart(now)

	key := cacheKey(q.UserID, "goals", dateKey(dayStart), loc.String())
	if v, ok := s.cached(key); ok {
		if r, ok := v.(GoalReport); ok {
			return r, nil
		}
	}

	targets := GoalTargets{
		DailyMinutes:   store.DefaultDailyGoalMinutes,
		WeeklyMinutes:  store.DefaultWeeklyGoalMinutes,
		MonthlyMinutes: store.DefaultMonthlyGoalMinutes,
	}
	if s.goals != nil {
		var err error
		targets, err = s.goals.GoalsFor(ctx, q.UserID)
		if err != nil {
			return GoalReport{}, err
		}
	}

	// One fetch from the earliest window start covers all three
	// periods.
	fetchFrom := monthStart
	if weekStart.Before(fetchFrom) {
		fetchFrom = weekStart
	}
	end := dayStart.AddDate(0, 0, 1)
	sessions, err := s.source.SessionsFor(ctx, q.UserID, fetchFrom, end)
	if err != nil {
		return GoalReport{}, err
	}

	var today, week, month int
	for _, sess := range sessions {
		if !sess.Start.Before(dayStart) {
			today += sess.Minutes
		}
		if !sess.Start.Before(weekStart) {
			week += sess.Minutes
		}
		if !sess.Start.Before(monthStart) {
			month += sess.Minutes
		}
	}

	r := GoalReport{
		UserID:   q.UserID,
		Timezone: loc.String(),
		Daily:    goalProgress("daily", targets.DailyMinutes, today),
		Weekly:   goalProgress("weekly", targets.WeeklyMinutes, week),
		Monthly:  goalProgress("monthly", targets.MonthlyMinutes, month),
	}
	s.memoize(key, r, s.baseTTL)
	return r, nil
}
