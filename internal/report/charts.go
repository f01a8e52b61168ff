package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/studyview/studyview/internal/analytics"
)

// Chart kinds served by Chart.
const (
	ChartDailyDuration       = "daily_duration"
	ChartSubjectDistribution = "subject_distribution"
	ChartHourlyDistribution  = "hourly_distribution"
	ChartWeeklyComparison    = "weekly_comparison"
)

// ChartPoint is one plotted value.
type ChartPoint struct {
	X     string  `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// ChartData is a render-ready data series.
type ChartData struct {
	ChartType  string       `json:"chart_type"`
	Title      string       `json:"title"`
	XAxisLabel string       `json:"x_axis_label"`
	YAxisLabel string       `json:"y_axis_label"`
	DataPoints []ChartPoint `json:"data_points"`
}

// Chart builds the named chart for the user. Unknown kinds are a
// validation error.
func (s *Service) Chart(ctx context.Context, q Query, chartType string) (ChartData, error) {
	if q.UserID == "" {
		return ChartData{}, validationf("user_id is required")
	}
	if q.PeriodDays < 0 || q.PeriodDays > MaxPeriodDays {
		return ChartData{}, validationf("period_days must be between 1 and %d", MaxPeriodDays)
	}
	switch chartType {
	case ChartDailyDuration, ChartSubjectDistribution, ChartHourlyDistribution, ChartWeeklyComparison:
	default:
		return ChartData{}, validationf("unknown chart type %q", chartType)
	}

	loc := q.location()
	days := clampPeriodDays(q.PeriodDays)
	now := s.now().In(loc)

	key := cacheKey(q.UserID, "chart", chartType, strconv.Itoa(days),
		dateKey(analytics.DayStart(now)), loc.String())
	if v, ok := s.cached(key); ok {
		if c, ok := v.(ChartData); ok {
			return c, nil
		}
	}

	var chart ChartData
	if chartType == ChartWeeklyComparison {
		c, err := s.weeklyComparisonChart(ctx, q.UserID, now, loc)
		if err != nil {
			return ChartData{}, err
		}
		chart = c
	} else {
		end := analytics.DayStart(now).AddDate(0, 0, 1)
		start := end.AddDate(0, 0, -days)
		sessions, err := s.source.SessionsFor(ctx, q.UserID, start, end)
		if err != nil {
			return ChartData{}, err
		}
		switch chartType {
		case ChartDailyDuration:
			chart = dailyDurationChart(start, days, sessions)
		case ChartSubjectDistribution:
			chart = subjectDistributionChart(sessions)
		case ChartHourlyDistribution:
			chart = hourlyDistributionChart(sessions, loc)
		}
	}
	s.memoize(key, chart, s.baseTTL)
	return chart, nil
}

func dailyDurationChart(start time.Time, days int, sessions []analytics.Session) ChartData {
	summaries := analytics.DailySummaries(start, days, sessions)
	points := make([]ChartPoint, 0, len(summaries))
	for _, d := range summaries {
		day, _ := time.ParseInLocation("2006-01-02", d.Date, start.Location())
		points = append(points, ChartPoint{
			X:     d.Date,
			Y:     float64(d.TotalMinutes),
			Label: day.Weekday().String(),
		})
	}
	return ChartData{
		ChartType:  ChartDailyDuration,
		Title:      "Daily Study Duration",
		XAxisLabel: "Date",
		YAxisLabel: "Minutes",
		DataPoints: points,
	}
}

func subjectDistributionChart(sessions []analytics.Session) ChartData {
	totals := analytics.Totals(sessions)
	points := make([]ChartPoint, 0, len(totals.Subjects))
	for _, sub := range totals.Subjects {
		points = append(points, ChartPoint{
			X:     sub.Subject,
			Y:     float64(sub.TotalMinutes),
			Label: fmt.Sprintf("%.1f%%", sub.Percentage),
		})
	}
	return ChartData{
		ChartType:  ChartSubjectDistribution,
		Title:      "Study Time by Subject",
		XAxisLabel: "Subject",
		YAxisLabel: "Minutes",
		DataPoints: points,
	}
}

func hourlyDistributionChart(sessions []analytics.Session, loc *time.Location) ChartData {
	var byHour [24]int
	for _, s := range sessions {
		byHour[s.Start.In(loc).Hour()] += s.Minutes
	}
	points := make([]ChartPoint, 0, 24)
	for h, minutes := range byHour {
		points = append(points, ChartPoint{
			X: fmt.Sprintf("%02d:00", h),
			Y: float64(minutes),
		})
	}
	return ChartData{
		ChartType:  ChartHourlyDistribution,
		Title:      "Study Time by Hour of Day",
		XAxisLabel: "Hour",
		YAxisLabel: "Minutes",
		DataPoints: points,
	}
}

// weeklyComparisonChart emits two 7-point weekday series, the
// previous week first, aligned Monday through Sunday.
func (s *Service) weeklyComparisonChart(ctx context.Context, userID string, now time.Time, loc *time.Location) (ChartData, error) {
	weekStart := analytics.MondayOf(now)
	prevStart := weekStart.AddDate(0, 0, -7)
	weekEnd := weekStart.AddDate(0, 0, 7)

	sessions, err := s.source.SessionsFor(ctx, userID, prevStart, weekEnd)
	if err != nil {
		return ChartData{}, err
	}
	assigned := analytics.AssignSessions([]analytics.Window{
		{Start: prevStart, End: weekStart},
		{Start: weekStart, End: weekEnd},
	}, sessions)

	series := []struct {
		label string
		start time.Time
		week  []analytics.Session
	}{
		{"previous_week", prevStart, assigned[0]},
		{"current_week", weekStart, assigned[1]},
	}
	points := make([]ChartPoint, 0, 14)
	for _, sr := range series {
		for i, d := range analytics.DailySummaries(sr.start, 7, sr.week) {
			points = append(points, ChartPoint{
				X:     time.Weekday((i + 1) % 7).String(),
				Y:     float64(d.TotalMinutes),
				Label: sr.label,
			})
		}
	}
	return ChartData{
		ChartType:  ChartWeeklyComparison,
		Title:      "This Week vs Last Week",
		XAxisLabel: "Weekday",
		YAxisLabel: "Minutes",
		DataPoints: points,
	}, nil
}
