package analytics

import "time"

// Granularity selects the calendar unit used to partition a
// date range into buckets.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Window is one half-open bucket interval [Start, End). Boundaries
// are midnights in the location the caller partitioned with, so
// hour/weekday attribution follows that location (UTC by default).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MondayOf truncates t to the Monday starting its ISO week,
// at midnight in t's location.
func MondayOf(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return DayStart(t).AddDate(0, 0, -(weekday - 1))
}

// MonthStart truncates t to the first of its month, at midnight
// in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// bucketStart truncates t to the start of its bucket.
func bucketStart(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return MondayOf(t)
	case GranularityMonth:
		return MonthStart(t)
	default:
		return DayStart(t)
	}
}

// next advances a bucket start to the following bucket boundary.
func next(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Partition covers [from, to) with ordered, contiguous buckets of
// the given granularity. The first bucket starts at from truncated
// to its bucket boundary (a mid-week from is normalized backward
// to Monday), so the covering may begin before from. An empty or
// inverted range yields no buckets.
func Partition(from, to time.Time, g Granularity) []Window {
	if !from.Before(to) {
		return nil
	}
	var windows []Window
	for start := bucketStart(from, g); start.Before(to); start = next(start, g) {
		windows = append(windows, Window{
			Start: start,
			End:   next(start, g),
		})
	}
	return windows
}

// AssignSessions distributes sessions across buckets by start
// time only; a session whose end crosses a boundary still counts
// entirely toward the bucket containing its start. Sessions
// outside every bucket are dropped. The result always has one
// (possibly empty) slice per bucket.
func AssignSessions(windows []Window, sessions []Session) [][]Session {
	assigned := make([][]Session, len(windows))
	for _, s := range sessions {
		for i, w := range windows {
			if w.Contains(s.Start) {
				assigned[i] = append(assigned[i], s)
				break
			}
		}
	}
	return assigned
}
