package analytics

import "time"

// Month count bounds for trend requests.
const (
	DefaultTrendMonths = 6
	MaxTrendMonths     = 24
)

// MonthlyTrend is one month's entry in a trend series.
type MonthlyTrend struct {
	Month           string  `json:"month"`
	TotalMinutes    int     `json:"total_duration"`
	SessionCount    int     `json:"session_count"`
	AvgDailyMinutes float64 `json:"average_daily_duration"`
	StudyDays       int     `json:"study_days"`
	Consistency     float64 `json:"consistency_score"`
}

// ClampTrendMonths normalizes a requested month count, mapping
// zero and negatives to the default and capping the upper end.
func ClampTrendMonths(months int) int {
	if months <= 0 {
		return DefaultTrendMonths
	}
	if months > MaxTrendMonths {
		return MaxTrendMonths
	}
	return months
}

// MonthlyTrends builds one entry per calendar month for the months
// window ending at now's month, oldest first. The current month is
// included even when partial; its consistency is measured against
// the full calendar month, so it reads low until the month
// completes. Months with no activity produce explicit zero entries.
func MonthlyTrends(sessions []Session, months int, now time.Time, loc *time.Location) []MonthlyTrend {
	months = ClampTrendMonths(months)

	end := MonthStart(now.In(loc))
	start := end.AddDate(0, -(months - 1), 0)
	windows := Partition(start, end.AddDate(0, 1, 0), GranularityMonth)
	assigned := AssignSessions(windows, sessions)

	trends := make([]MonthlyTrend, 0, len(windows))
	for i, w := range windows {
		totals := Totals(assigned[i])
		daysInMonth := w.End.AddDate(0, 0, -1).Day()
		activeDays := CountActiveDays(assigned[i], loc)

		avgDaily := 0.0
		if daysInMonth > 0 {
			avgDaily = round1(float64(totals.TotalMinutes) / float64(daysInMonth))
		}
		trends = append(trends, MonthlyTrend{
			Month:           w.Start.Format("2006-01"),
			TotalMinutes:    totals.TotalMinutes,
			SessionCount:    totals.SessionCount,
			AvgDailyMinutes: avgDaily,
			StudyDays:       activeDays,
			Consistency:     ConsistencyScore(activeDays, daysInMonth),
		})
	}
	return trends
}
