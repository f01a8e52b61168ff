package analytics

import "time"

// CountActiveDays counts the distinct calendar dates, in loc, on
// which at least one session started.
func CountActiveDays(sessions []Session, loc *time.Location) int {
	days := make(map[string]struct{})
	for _, s := range sessions {
		days[s.Start.In(loc).Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}

// ConsistencyScore is the share of days in a period with any
// activity, as a percentage with one decimal. A non-positive
// totalDays yields 0 rather than a division fault.
func ConsistencyScore(activeDays, totalDays int) float64 {
	if totalDays <= 0 {
		return 0
	}
	return round1(float64(activeDays) / float64(totalDays) * 100)
}
