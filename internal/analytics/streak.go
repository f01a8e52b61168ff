package analytics

import (
	"sort"
	"time"
)

// Streaks reports consecutive-day activity runs.
type Streaks struct {
	CurrentDays int `json:"current_days"`
	LongestDays int `json:"longest_days"`
}

// StreakStats computes the current and longest consecutive-day
// streaks from session start dates in loc. The current streak is
// anchored at today, or at yesterday when today has no activity
// yet, so a streak survives until a full day is actually missed.
func StreakStats(sessions []Session, now time.Time, loc *time.Location) Streaks {
	const day = "2006-01-02"

	active := make(map[string]struct{})
	for _, s := range sessions {
		active[s.Start.In(loc).Format(day)] = struct{}{}
	}
	if len(active) == 0 {
		return Streaks{}
	}

	var streaks Streaks

	anchor := DayStart(now.In(loc))
	if _, ok := active[anchor.Format(day)]; !ok {
		anchor = anchor.AddDate(0, 0, -1)
	}
	for {
		if _, ok := active[anchor.Format(day)]; !ok {
			break
		}
		streaks.CurrentDays++
		anchor = anchor.AddDate(0, 0, -1)
	}

	dates := make([]string, 0, len(active))
	for d := range active {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	run := 1
	streaks.LongestDays = 1
	for i := 1; i < len(dates); i++ {
		prev, _ := time.ParseInLocation(day, dates[i-1], loc)
		if dates[i] == prev.AddDate(0, 0, 1).Format(day) {
			run++
		} else {
			run = 1
		}
		if run > streaks.LongestDays {
			streaks.LongestDays = run
		}
	}
	return streaks
}
