package analytics

import (
	"math"
	"sort"
	"time"
)

// round1 rounds to one decimal place, the precision used for all
// derived percentages and averages.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// medianInt returns the median of a sorted int slice of length n.
// For even n, returns the average of the two middle elements.
func medianInt(sorted []int, n int) int {
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// percentileInt returns the value at the given percentile from a
// pre-sorted int slice.
func percentileInt(sorted []int, pct float64) int {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(float64(n) * pct)
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// SubjectStat is one subject's share of a period.
type SubjectStat struct {
	Subject      string  `json:"subject"`
	TotalMinutes int     `json:"total_duration"`
	SessionCount int     `json:"session_count"`
	Percentage   float64 `json:"percentage"`
}

// PeriodTotals reduces the sessions of one bucket.
type PeriodTotals struct {
	TotalMinutes      int           `json:"total_duration"`
	SessionCount      int           `json:"session_count"`
	AvgSessionMinutes float64       `json:"average_session_duration"`
	Subjects          []SubjectStat `json:"subjects"`
}

// Totals aggregates a bucket's sessions: summed duration, session
// count, average length (0 for an empty bucket, never a division
// fault), and the per-subject breakdown ranked by duration
// descending with lexicographic tie-breaks. Percentages are
// fractions of the bucket total and 0 when the total is 0.
func Totals(sessions []Session) PeriodTotals {
	t := PeriodTotals{Subjects: []SubjectStat{}}

	type subjectAccum struct {
		minutes  int
		sessions int
	}
	bySubject := make(map[string]*subjectAccum)

	for _, s := range sessions {
		t.TotalMinutes += s.Minutes
		t.SessionCount++
		acc := bySubject[s.Subject]
		if acc == nil {
			acc = &subjectAccum{}
			bySubject[s.Subject] = acc
		}
		acc.minutes += s.Minutes
		acc.sessions++
	}

	if t.SessionCount > 0 {
		t.AvgSessionMinutes = round1(
			float64(t.TotalMinutes) / float64(t.SessionCount),
		)
	}

	for subject, acc := range bySubject {
		pct := 0.0
		if t.TotalMinutes > 0 {
			pct = round1(
				float64(acc.minutes) / float64(t.TotalMinutes) * 100,
			)
		}
		t.Subjects = append(t.Subjects, SubjectStat{
			Subject:      subject,
			TotalMinutes: acc.minutes,
			SessionCount: acc.sessions,
			Percentage:   pct,
		})
	}
	sort.Slice(t.Subjects, func(i, j int) bool {
		if t.Subjects[i].TotalMinutes != t.Subjects[j].TotalMinutes {
			return t.Subjects[i].TotalMinutes > t.Subjects[j].TotalMinutes
		}
		return t.Subjects[i].Subject < t.Subjects[j].Subject
	})

	return t
}

// TopSubjects returns the first n entries of a ranked subject
// breakdown, or all of them when fewer exist.
func TopSubjects(subjects []SubjectStat, n int) []SubjectStat {
	if len(subjects) <= n {
		return subjects
	}
	return subjects[:n]
}

// DailySummary is the per-day slice of a weekly report.
type DailySummary struct {
	Date              string   `json:"date"`
	TotalMinutes      int      `json:"total_duration_minutes"`
	SessionCount      int      `json:"session_count"`
	Subjects          []string `json:"subjects"`
	AvgSessionMinutes float64  `json:"average_session_duration"`
}

// DailySummaries produces one summary per calendar day over
// [start, start+days), including zero-activity days, so callers
// get a fixed-length series (7 for a week) no matter how sparse
// the input is. start must be a local midnight; sessions are
// assigned by start time.
func DailySummaries(start time.Time, days int, sessions []Session) []DailySummary {
	windows := Partition(start, start.AddDate(0, 0, days), GranularityDay)
	assigned := AssignSessions(windows, sessions)

	summaries := make([]DailySummary, 0, len(windows))
	for i, w := range windows {
		totals := Totals(assigned[i])
		subjects := make([]string, 0, len(totals.Subjects))
		for _, sub := range totals.Subjects {
			subjects = append(subjects, sub.Subject)
		}
		sort.Strings(subjects)
		summaries = append(summaries, DailySummary{
			Date:              w.Start.Format("2006-01-02"),
			TotalMinutes:      totals.TotalMinutes,
			SessionCount:      totals.SessionCount,
			Subjects:          subjects,
			AvgSessionMinutes: totals.AvgSessionMinutes,
		})
	}
	return summaries
}
