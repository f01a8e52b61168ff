package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Focus score weights. The composite must stay stable across calls
// for identical input, so both halves are fixed policy constants
// rather than derived values.
const (
	focusRegularityWeight  = 0.5
	focusConsistencyWeight = 0.5
)

// Suggestion rule thresholds.
const (
	shortSessionMinutes    = 25
	longSessionMinutes     = 60
	sparseSessionsPerDay   = 0.5
	lowConsistencyScore    = 50.0
	lateStudyHour          = 20
	sessionLengthBucketMin = 15
)

var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday",
	"Friday", "Saturday", "Sunday",
}

// HourStat totals one hour-of-day bucket.
type HourStat struct {
	Hour         int `json:"hour"`
	TotalMinutes int `json:"total_duration"`
	SessionCount int `json:"session_count"`
}

// WeekdayStat totals one weekday bucket.
type WeekdayStat struct {
	Weekday      string `json:"weekday"`
	TotalMinutes int    `json:"total_duration"`
	SessionCount int    `json:"session_count"`
}

// ProductivityMetrics is the full habit profile for one period.
type ProductivityMetrics struct {
	PeakHours             []HourStat    `json:"peak_hours"`
	OptimalSessionMinutes int           `json:"optimal_session_length"`
	BestStudyDays         []WeekdayStat `json:"best_study_days"`
	FocusScore            float64       `json:"focus_score"`
	Suggestions           []string      `json:"improvement_suggestions"`
}

// --- Peak hours and weekdays ---

// PeakHours buckets sessions by start hour in loc and returns the
// top three hours by total duration, ties going to the earlier
// hour. Hours with no activity never appear.
func PeakHours(sessions []Session, loc *time.Location) []HourStat {
	var byHour [24]HourStat
	for _, s := range sessions {
		h := s.Start.In(loc).Hour()
		byHour[h].Hour = h
		byHour[h].TotalMinutes += s.Minutes
		byHour[h].SessionCount++
	}

	stats := make([]HourStat, 0, 24)
	for h, st := range byHour {
		if st.SessionCount == 0 {
			continue
		}
		st.Hour = h
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalMinutes != stats[j].TotalMinutes {
			return stats[i].TotalMinutes > stats[j].TotalMinutes
		}
		return stats[i].Hour < stats[j].Hour
	})
	if len(stats) > 3 {
		stats = stats[:3]
	}
	return stats
}

// BestStudyDays buckets sessions by start weekday in loc and
// returns the top three weekdays by total duration, ties going to
// the earlier weekday with Monday first.
func BestStudyDays(sessions []Session, loc *time.Location) []WeekdayStat {
	var byDay [7]WeekdayStat
	for _, s := range sessions {
		dow := (int(s.Start.In(loc).Weekday()) + 6) % 7
		byDay[dow].TotalMinutes += s.Minutes
		byDay[dow].SessionCount++
	}

	type ranked struct {
		dow  int
		stat WeekdayStat
	}
	stats := make([]ranked, 0, 7)
	for dow, st := range byDay {
		if st.SessionCount == 0 {
			continue
		}
		st.Weekday = weekdayNames[dow]
		stats = append(stats, ranked{dow: dow, stat: st})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].stat.TotalMinutes != stats[j].stat.TotalMinutes {
			return stats[i].stat.TotalMinutes > stats[j].stat.TotalMinutes
		}
		return stats[i].dow < stats[j].dow
	})
	if len(stats) > 3 {
		stats = stats[:3]
	}

	out := make([]WeekdayStat, 0, len(stats))
	for _, r := range stats {
		out = append(out, r.stat)
	}
	return out
}

// --- Optimal session length ---

// roundTo15 snaps a duration to the nearest 15 minute bucket.
func roundTo15(minutes int) int {
	return int(math.Round(float64(minutes)/sessionLengthBucketMin)) * sessionLengthBucketMin
}

// OptimalSessionLength picks the session length, in minutes, that
// the data suggests works best. When satisfaction ratings exist the
// 15 minute bucket with the highest average rating wins, ties going
// to the shorter bucket. Without ratings it falls back
// to the median duration of sessions above the 75th percentile, or
// the overall median when no session exceeds it.
func OptimalSessionLength(sessions []Session) int {
	if len(sessions) == 0 {
		return 0
	}

	type ratingAccum struct {
		ratingSum int
		minutes   int
		sessions  int
	}
	byBucket := make(map[int]*ratingAccum)
	for _, s := range sessions {
		if s.Satisfaction == nil {
			continue
		}
		b := roundTo15(s.Minutes)
		acc := byBucket[b]
		if acc == nil {
			acc = &ratingAccum{}
			byBucket[b] = acc
		}
		acc.ratingSum += *s.Satisfaction
		acc.minutes += s.Minutes
		acc.sessions++
	}

	if len(byBucket) > 0 {
		best, bestAvg := 0, -1.0
		buckets := make([]int, 0, len(byBucket))
		for b := range byBucket {
			buckets = append(buckets, b)
		}
		sort.Ints(buckets)
		// Ascending bucket order means a tied average keeps
		// the shorter length.
		for _, b := range buckets {
			acc := byBucket[b]
			avg := float64(acc.ratingSum) / float64(acc.sessions)
			if avg > bestAvg {
				best, bestAvg = b, avg
			}
		}
		return best
	}

	durations := make([]int, 0, len(sessions))
	for _, s := range sessions {
		durations = append(durations, s.Minutes)
	}
	sort.Ints(durations)
	p75 := percentileInt(durations, 0.75)

	var above []int
	for _, d := range durations {
		if d > p75 {
			above = append(above, d)
		}
	}
	if len(above) == 0 {
		return medianInt(durations, len(durations))
	}
	return medianInt(above, len(above))
}

// --- Focus score ---

// RegularityScore maps the coefficient of variation of session
// durations onto 0-100, where identical durations score 100 and a
// spread as wide as the mean scores 0.
func RegularityScore(sessions []Session) float64 {
	n := len(sessions)
	if n == 0 {
		return 0
	}

	var sum float64
	for _, s := range sessions {
		sum += float64(s.Minutes)
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	var sumsq float64
	for _, s := range sessions {
		d := float64(s.Minutes) - mean
		sumsq += d * d
	}
	cv := math.Sqrt(sumsq/float64(n)) / mean

	score := 100 * (1 - cv)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// FocusScore combines duration regularity and day-to-day
// consistency into a single 0-100 number.
func FocusScore(sessions []Session, consistency float64) float64 {
	if len(sessions) == 0 {
		return 0
	}
	score := focusRegularityWeight*RegularityScore(sessions) +
		focusConsistencyWeight*consistency
	return round1(score)
}

// --- Suggestions ---

// Suggestions evaluates the improvement rules in a fixed order.
// Rules are independent; any subset may fire. When none fire the
// caller gets a single encouragement line instead of an empty list.
func Suggestions(sessions []Session, periodDays int, consistency float64, peaks []HourStat) []string {
	out := []string{}
	if len(sessions) == 0 {
		return append(out, "Log a study session to start receiving personalized suggestions.")
	}

	var total int
	for _, s := range sessions {
		total += s.Minutes
	}
	avg := float64(total) / float64(len(sessions))

	if avg < shortSessionMinutes {
		out = append(out, fmt.Sprintf(
			"Your sessions average %.0f minutes. Try stretching them toward %d minutes to build deeper focus.",
			avg, shortSessionMinutes))
	}
	if avg > longSessionMinutes {
		out = append(out, fmt.Sprintf(
			"Your sessions average %.0f minutes. Consider short breaks to keep long sessions effective.",
			avg))
	}
	if periodDays > 0 {
		perDay := float64(len(sessions)) / float64(periodDays)
		if perDay < sparseSessionsPerDay {
			out = append(out, "Schedule study sessions more frequently; shorter daily sessions beat rare marathons.")
		}
	}
	if consistency < lowConsistencyScore {
		out = append(out, "Your consistency is below 50%. A fixed daily study slot makes the habit stick.")
	}
	if len(peaks) > 0 {
		allLate := true
		for _, p := range peaks {
			if p.Hour < lateStudyHour {
				allLate = false
				break
			}
		}
		if allLate {
			out = append(out, "Most of your studying happens late in the evening. An earlier slot may improve retention.")
		}
	}

	if len(out) == 0 {
		out = append(out, "Great balance! Keep up your current study rhythm.")
	}
	return out
}

// Productivity derives the full habit profile for one period.
// periodDays is the calendar length of the period and feeds both
// the consistency input to the focus score and the frequency rule.
func Productivity(sessions []Session, periodDays int, loc *time.Location) ProductivityMetrics {
	consistency := ConsistencyScore(CountActiveDays(sessions, loc), periodDays)
	peaks := PeakHours(sessions, loc)
	return ProductivityMetrics{
		PeakHours:             peaks,
		OptimalSessionMinutes: OptimalSessionLength(sessions),
		BestStudyDays:         BestStudyDays(sessions, loc),
		FocusScore:            FocusScore(sessions, consistency),
		Suggestions:           Suggestions(sessions, periodDays, consistency, peaks),
	}
}
